package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the read model for a user. Only the display name is consumed
// by this engine, for resolving assignment changes into narration.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
