package models

import (
	"time"

	"github.com/google/uuid"
)

// TimerSession represents one measured interval of work on a task.
//
// A session is created active with StartTime set and transitions exactly once
// to inactive, at which point EndTime and Duration are fixed permanently.
// For any user at most one session may be active at any instant; the
// database layer enforces this transactionally across all of the user's
// tasks.
type TimerSession struct {
	ID        uuid.UUID  `json:"id"`
	TaskID    uuid.UUID  `json:"task_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // minutes, set at stop time
	Active    bool       `json:"active"`
}

// Elapsed returns the minutes elapsed since the session started, against
// the supplied clock time. Used for reminder notifications on active
// sessions; for stopped sessions prefer Duration.
func (s *TimerSession) Elapsed(now time.Time) int {
	return int(now.Sub(s.StartTime).Minutes())
}
