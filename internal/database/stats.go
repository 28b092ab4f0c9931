package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tempohq/tempo/internal/models"
)

// StatsRepository runs the read-only aggregation queries behind the
// statistics views. It never mutates state; reads run against ordinary
// snapshots and are not serialized with timer writes.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// TimeSpentInWindow sums the duration of the user's completed timer
// sessions whose end time falls within [from, to).
func (r *StatsRepository) TimeSpentInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(s.duration), 0)
		FROM timer_sessions s
		JOIN tasks t ON s.task_id = t.id
		WHERE t.user_id = $1
		  AND NOT s.active
		  AND s.end_time >= $2 AND s.end_time < $3
	`

	var total int
	if err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum time spent: %w", err)
	}
	return total, nil
}

// CompletedTasksInWindow counts the user's tasks completed within [from, to).
func (r *StatsRepository) CompletedTasksInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(id)
		FROM tasks
		WHERE user_id = $1
		  AND completed
		  AND completed_at >= $2 AND completed_at < $3
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return count, nil
}

// OpenTasksCreatedInWindow counts the user's tasks created within [from, to)
// and not yet completed. Deliberately not the complement of
// CompletedTasksInWindow: the two counts are independently date-scoped.
func (r *StatsRepository) OpenTasksCreatedInWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(id)
		FROM tasks
		WHERE user_id = $1
		  AND NOT completed
		  AND created_at >= $2 AND created_at < $3
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open tasks: %w", err)
	}
	return count, nil
}

// TagStats aggregates time spent per tag over sessions ending on or after
// cutoff. Active sessions qualify regardless of cutoff since they have no
// end time yet; they contribute to task_count but add no minutes. Tags with
// no qualifying sessions still appear with zero values. When tagIDs is
// non-empty the result is restricted to those tags.
func (r *StatsRepository) TagStats(ctx context.Context, userID uuid.UUID, tagIDs []uuid.UUID, cutoff time.Time) ([]models.TagStats, error) {
	query := `
		SELECT g.id, g.name,
		       COALESCE(SUM(s.duration), 0),
		       COUNT(DISTINCT t.id) FILTER (WHERE s.id IS NOT NULL)
		FROM tags g
		LEFT JOIN task_tags tt ON tt.tag_id = g.id
		LEFT JOIN tasks t ON t.id = tt.task_id
		LEFT JOIN timer_sessions s ON s.task_id = t.id
		     AND (s.end_time IS NULL OR s.end_time >= $2)
		WHERE g.user_id = $1
	`
	args := []any{userID, cutoff}

	if len(tagIDs) > 0 {
		query += " AND g.id = ANY($3)"
		args = append(args, pq.Array(tagIDs))
	}

	query += " GROUP BY g.id, g.name ORDER BY g.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag stats: %w", err)
	}
	defer rows.Close()

	stats := []models.TagStats{}
	for rows.Next() {
		var ts models.TagStats
		if err := rows.Scan(&ts.TagID, &ts.TagName, &ts.TotalTimeSpent, &ts.TaskCount); err != nil {
			return nil, fmt.Errorf("failed to scan tag stats: %w", err)
		}
		stats = append(stats, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag stats: %w", err)
	}

	return stats, nil
}
