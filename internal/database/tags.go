package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tempohq/tempo/internal/models"
)

// TagRepository handles tag database operations. All lookups are scoped by
// owning user; a tag belonging to another user is reported as not found.
type TagRepository struct {
	db *DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create creates a new tag. A duplicate (name, user) pair returns ErrConflict.
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO tags (id, user_id, name, color, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		tag.ID,
		tag.UserID,
		tag.Name,
		tag.Color,
		time.Now().UTC(),
	).Scan(&tag.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("tag %q already exists for user: %w", tag.Name, ErrConflict)
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}

	return nil
}

// GetByIDForUser retrieves a tag by ID, scoped to the owning user
func (r *TagRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Tag, error) {
	tag := &models.Tag{}
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&tag.ID,
		&tag.UserID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

// GetByNameForUser retrieves a tag by name within a user's namespace
func (r *TagRepository) GetByNameForUser(ctx context.Context, name string, userID uuid.UUID) (*models.Tag, error) {
	tag := &models.Tag{}
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE name = $1 AND user_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, name, userID).Scan(
		&tag.ID,
		&tag.UserID,
		&tag.Name,
		&tag.Color,
		&tag.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag not found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}

	return tag, nil
}

// ListByUser retrieves all tags for a user
func (r *TagRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT id, user_id, name, color, created_at
		FROM tags
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// Update updates a tag's name and color, scoped to the owning user
func (r *TagRepository) Update(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags
		SET name = $3, color = $4
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, tag.ID, tag.UserID, tag.Name, tag.Color)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("tag %q already exists for user: %w", tag.Name, ErrConflict)
		}
		return fmt.Errorf("failed to update tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tag not found: %w", ErrNotFound)
	}

	return nil
}

// Delete deletes a tag, scoped to the owning user. Task associations are
// removed by the ON DELETE CASCADE on task_tags.
func (r *TagRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tag not found: %w", ErrNotFound)
	}

	return nil
}
