package models

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a unit of work owned by a user.
//
// ActualTimeSpent is the sum of Duration over all completed timer sessions
// of the task. It is incremented by the timer engine when a session stops,
// in the same transaction that finalizes the session.
type Task struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	EstimatedTime   int        `json:"estimated_time"` // minutes
	Priority        int        `json:"priority"`       // 1-5
	Completed       bool       `json:"completed"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ActualTimeSpent int        `json:"actual_time_spent"` // minutes
	Tags            []*Tag     `json:"tags"`
}

// TaskFilter holds optional filters for listing a user's tasks.
type TaskFilter struct {
	Completed        *bool
	Priority         *int
	TagIDs           []uuid.UUID
	TitleContains    string
	EstimatedTimeMin *int
	EstimatedTimeMax *int
	Skip             int
	Limit            int
}
