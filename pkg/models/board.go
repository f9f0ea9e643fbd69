package models

import (
	"time"

	"github.com/google/uuid"
)

// Board is the read model for a board (a column/list grouping tasks
// within a project).
type Board struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BoardFields is the ordered set of board fields the change detector inspects.
var BoardFields = []string{FieldName, FieldDescription}

// Snapshot returns the diffable view of the board.
func (b *Board) Snapshot() map[string]any {
	return map[string]any{
		FieldName:        b.Name,
		FieldDescription: optString(b.Description),
	}
}
