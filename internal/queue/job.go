package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the kind of notification to deliver
type JobType string

const (
	// JobTypeCompletion is sent when a user completes a task
	JobTypeCompletion JobType = "task_completion"
	// JobTypeReminder is sent periodically while a timer keeps running
	JobTypeReminder JobType = "timer_reminder"
	// JobTypeTimeUp is sent when a running timer passes the task's estimate
	JobTypeTimeUp JobType = "time_up"
)

// Job is one notification to deliver to a user's chat. Delivery is
// best-effort: jobs that exhaust their retries land in the DLQ and are
// eventually purged.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	ChatID     string     `json:"chat_id"`              // chat-platform identity to deliver to
	Text       string     `json:"text"`                 // rendered message text
	NotBefore  *time.Time `json:"not_before,omitempty"` // earliest delivery time (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // latest useful delivery time (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new notification job
func NewJob(jobType JobType, userID uuid.UUID, chatID, text string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		ChatID:     chatID,
		Text:       text,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
