// Package stats implements the statistics aggregator: daily, weekly, per-tag
// and trend figures computed from completed timer sessions and task state.
// All windows are UTC calendar days, half-open [from, to).
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
)

// DateFormat is the wire format for calendar days.
const DateFormat = "2006-01-02"

// DefaultTagPeriodDays is the trailing window for tag statistics.
const DefaultTagPeriodDays = 30

// DefaultTrendDays is the length of the productivity trend series.
const DefaultTrendDays = 7

// Aggregator computes statistics for a single user from the stats
// repository. It holds no state beyond its dependencies; the clock is
// injectable for tests.
type Aggregator struct {
	repo database.StatsRepositoryInterface
	now  func() time.Time
}

// NewAggregator creates a statistics aggregator.
func NewAggregator(repo database.StatsRepositoryInterface) *Aggregator {
	return &Aggregator{
		repo: repo,
		now:  time.Now,
	}
}

// DailyStats returns the user's aggregates for the UTC calendar day
// containing date. Days with no recorded activity return all-zero figures,
// never an error.
func (a *Aggregator) DailyStats(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyStats, error) {
	from := dayStart(date)
	to := from.AddDate(0, 0, 1)

	timeSpent, err := a.repo.TimeSpentInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	completed, err := a.repo.CompletedTasksInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	active, err := a.repo.OpenTasksCreatedInWindow(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return &models.DailyStats{
		Date:           from.Format(DateFormat),
		TotalTimeSpent: timeSpent,
		CompletedTasks: completed,
		ActiveTasks:    active,
	}, nil
}

// WeeklyStats returns aggregates for the Monday-to-Sunday week containing
// the current UTC day, composed from seven per-day calls so the weekly
// totals are exactly the sum of the daily breakdown.
func (a *Aggregator) WeeklyStats(ctx context.Context, userID uuid.UUID) (*models.WeeklyStats, error) {
	weekStart := mondayOf(a.now().UTC())
	weekEnd := weekStart.AddDate(0, 0, 6)

	weekly := &models.WeeklyStats{
		WeekStart:      weekStart.Format(DateFormat),
		WeekEnd:        weekEnd.Format(DateFormat),
		DailyBreakdown: make([]models.DailyStats, 0, 7),
	}

	for i := 0; i < 7; i++ {
		daily, err := a.DailyStats(ctx, userID, weekStart.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		weekly.TotalTimeSpent += daily.TotalTimeSpent
		weekly.CompletedTasks += daily.CompletedTasks
		weekly.DailyBreakdown = append(weekly.DailyBreakdown, *daily)
	}

	return weekly, nil
}

// TagStats returns per-tag time figures over the trailing periodDays window.
// tagIDs narrows the result to the named tags; nil means all of the user's
// tags. Every requested tag appears in the result, zero-filled when none of
// its tasks have sessions inside the window. periodDays <= 0 falls back to
// the default.
func (a *Aggregator) TagStats(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, periodDays int) ([]models.TagStats, error) {
	if periodDays <= 0 {
		periodDays = DefaultTagPeriodDays
	}
	cutoff := a.now().UTC().AddDate(0, 0, -periodDays)

	return a.repo.TagStats(ctx, userID, tagIDs, cutoff)
}

// ProductivityTrends returns the trailing days-long daily series ending
// today, oldest day first. PlannedTime mirrors ActualTime for now.
// days <= 0 falls back to the default.
func (a *Aggregator) ProductivityTrends(ctx context.Context, userID uuid.UUID, days int) ([]models.ProductivityTrend, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}

	today := dayStart(a.now().UTC())
	trends := make([]models.ProductivityTrend, 0, days)

	for i := days - 1; i >= 0; i-- {
		daily, err := a.DailyStats(ctx, userID, today.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		trends = append(trends, models.ProductivityTrend{
			Day:            daily.Date,
			PlannedTime:    daily.TotalTimeSpent,
			ActualTime:     daily.TotalTimeSpent,
			CompletedTasks: daily.CompletedTasks,
		})
	}

	return trends, nil
}

// dayStart returns midnight UTC of the calendar day containing t.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOf returns midnight UTC of the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}
