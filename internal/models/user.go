package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system. Users are created on first contact
// from the chat platform and are never deleted in normal operation.
type User struct {
	ID         uuid.UUID `json:"id"`
	TelegramID string    `json:"telegram_id"`
	Username   *string   `json:"username,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
