package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is the read model for a project.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectFields is the ordered set of project fields the change detector inspects.
var ProjectFields = []string{FieldName, FieldDescription}

// Snapshot returns the diffable view of the project.
func (p *Project) Snapshot() map[string]any {
	return map[string]any{
		FieldName:        p.Name,
		FieldDescription: optString(p.Description),
	}
}
