package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tempohq/tempo/internal/models"
)

// TaskRepository handles task database operations. Every lookup and mutation
// is scoped by owning user; a task belonging to another user is reported as
// not found.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a task and associates it with the given tags. Tag ids that
// do not exist or belong to another user are silently dropped, matching the
// tag resolution scope of reads.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO tasks (id, user_id, title, description, estimated_time, priority, completed, created_at, actual_time_spent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
		RETURNING created_at
	`

	err = tx.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.EstimatedTime,
		task.Priority,
		task.Completed,
		time.Now().UTC(),
	).Scan(&task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := replaceTaskTags(ctx, tx, task.ID, task.UserID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task creation: %w", err)
	}

	task.Tags, err = r.tagsForTask(ctx, task.ID, task.UserID)
	if err != nil {
		return err
	}
	return nil
}

// GetByIDForUser retrieves a task with its tags, scoped to the owning user
func (r *TaskRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	task := &models.Task{}
	var completedAt sql.NullTime

	query := `
		SELECT id, user_id, title, description, estimated_time, priority, completed, created_at, completed_at, actual_time_spent
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.EstimatedTime,
		&task.Priority,
		&task.Completed,
		&task.CreatedAt,
		&completedAt,
		&task.ActualTimeSpent,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	task.Tags, err = r.tagsForTask(ctx, task.ID, userID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List retrieves a user's tasks matching the filter, tags included
func (r *TaskRepository) List(ctx context.Context, userID uuid.UUID, filter models.TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT DISTINCT t.id, t.user_id, t.title, t.description, t.estimated_time, t.priority, t.completed, t.created_at, t.completed_at, t.actual_time_spent
		FROM tasks t
	`
	args := []any{userID}
	argIndex := 2

	if len(filter.TagIDs) > 0 {
		query += fmt.Sprintf(" JOIN task_tags tt ON tt.task_id = t.id AND tt.tag_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.TagIDs))
		argIndex++
	}

	query += " WHERE t.user_id = $1"

	if filter.Completed != nil {
		query += fmt.Sprintf(" AND t.completed = $%d", argIndex)
		args = append(args, *filter.Completed)
		argIndex++
	}
	if filter.Priority != nil {
		query += fmt.Sprintf(" AND t.priority = $%d", argIndex)
		args = append(args, *filter.Priority)
		argIndex++
	}
	if filter.TitleContains != "" {
		query += fmt.Sprintf(" AND t.title ILIKE $%d", argIndex)
		args = append(args, "%"+filter.TitleContains+"%")
		argIndex++
	}
	if filter.EstimatedTimeMin != nil {
		query += fmt.Sprintf(" AND t.estimated_time >= $%d", argIndex)
		args = append(args, *filter.EstimatedTimeMin)
		argIndex++
	}
	if filter.EstimatedTimeMax != nil {
		query += fmt.Sprintf(" AND t.estimated_time <= $%d", argIndex)
		args = append(args, *filter.EstimatedTimeMax)
		argIndex++
	}

	query += " ORDER BY t.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Skip)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var completedAt sql.NullTime

		err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.EstimatedTime,
			&task.Priority,
			&task.Completed,
			&task.CreatedAt,
			&completedAt,
			&task.ActualTimeSpent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if completedAt.Valid {
			task.CompletedAt = &completedAt.Time
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	for _, task := range tasks {
		task.Tags, err = r.tagsForTask(ctx, task.ID, userID)
		if err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// Update updates a task's fields and, when tagIDs is non-nil, replaces its
// tag associations. Scoped to the owning user.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task, tagIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	query := `
		UPDATE tasks
		SET title = $3, description = $4, estimated_time = $5, priority = $6, completed = $7, completed_at = $8
		WHERE id = $1 AND user_id = $2
	`

	result, err := tx.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.EstimatedTime,
		task.Priority,
		task.Completed,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %w", ErrNotFound)
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, task.ID); err != nil {
			return fmt.Errorf("failed to clear task tags: %w", err)
		}
		if err := replaceTaskTags(ctx, tx, task.ID, task.UserID, tagIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task update: %w", err)
	}

	task.Tags, err = r.tagsForTask(ctx, task.ID, task.UserID)
	if err != nil {
		return err
	}
	return nil
}

// Delete deletes a task, scoped to the owning user. Timer sessions and tag
// associations are removed by ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %w", ErrNotFound)
	}

	return nil
}

// replaceTaskTags inserts associations for every tag id that exists within
// the user's namespace. Runs inside the caller's transaction.
func replaceTaskTags(ctx context.Context, tx *sql.Tx, taskID, userID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO task_tags (task_id, tag_id)
		SELECT $1, id FROM tags WHERE id = ANY($2) AND user_id = $3
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, taskID, pq.Array(tagIDs), userID); err != nil {
		return fmt.Errorf("failed to associate tags: %w", err)
	}
	return nil
}

// tagsForTask loads the tags associated with a task, scoped to the user
func (r *TaskRepository) tagsForTask(ctx context.Context, taskID, userID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT g.id, g.user_id, g.name, g.color, g.created_at
		FROM tags g
		JOIN task_tags tt ON tt.tag_id = g.id
		WHERE tt.task_id = $1 AND g.user_id = $2
		ORDER BY g.name
	`

	rows, err := r.db.QueryContext(ctx, query, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task tags: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task tags: %w", err)
	}

	return tags, nil
}
