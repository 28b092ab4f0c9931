package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a user-scoped label. Tag names are unique per (name, user) pair.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
