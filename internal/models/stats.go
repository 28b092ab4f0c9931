package models

import "github.com/google/uuid"

// DailyStats holds aggregated figures for a single UTC calendar day.
//
// CompletedTasks and ActiveTasks are independently date-scoped counts:
// completed counts tasks whose completed_at falls on the day, active counts
// tasks created on the day and not yet completed. They are not complementary
// across days.
type DailyStats struct {
	Date           string `json:"date"`             // YYYY-MM-DD
	TotalTimeSpent int    `json:"total_time_spent"` // minutes
	CompletedTasks int    `json:"completed_tasks"`
	ActiveTasks    int    `json:"active_tasks"`
}

// WeeklyStats holds Monday-Sunday aggregates composed from seven daily results.
type WeeklyStats struct {
	WeekStart      string       `json:"week_start"` // YYYY-MM-DD
	WeekEnd        string       `json:"week_end"`
	TotalTimeSpent int          `json:"total_time_spent"` // minutes
	CompletedTasks int          `json:"completed_tasks"`
	DailyBreakdown []DailyStats `json:"daily_breakdown"`
}

// TagStats holds per-tag time figures over a trailing window.
type TagStats struct {
	TagID          uuid.UUID `json:"tag_id"`
	TagName        string    `json:"tag_name"`
	TotalTimeSpent int       `json:"total_time_spent"` // minutes
	TaskCount      int       `json:"task_count"`
}

// ProductivityTrend is one day of the trailing productivity series.
// PlannedTime currently mirrors ActualTime; estimated-vs-actual comparison
// is not yet differentiated.
type ProductivityTrend struct {
	Day            string `json:"day"`          // YYYY-MM-DD
	PlannedTime    int    `json:"planned_time"` // minutes
	ActualTime     int    `json:"actual_time"`  // minutes
	CompletedTasks int    `json:"completed_tasks"`
}
