package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/models"
)

// UserActivityRepository handles user activity database operations
type UserActivityRepository struct {
	db *DB
}

// NewUserActivityRepository creates a new user activity repository
func NewUserActivityRepository(db *DB) *UserActivityRepository {
	return &UserActivityRepository{db: db}
}

// GetByUserID retrieves user activity by user ID
func (r *UserActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserActivity, error) {
	activity := &models.UserActivity{}
	err := r.db.GetContext(ctx, activity, `
		SELECT user_id, last_api_interaction, created_at, updated_at
		FROM user_activity
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user activity: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user activity: %w", err)
	}
	return activity, nil
}

// UpdateLastInteraction records an API call by the user
func (r *UserActivityRepository) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_activity (user_id, last_api_interaction, created_at, updated_at)
		VALUES ($1, $2, $2, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET last_api_interaction = EXCLUDED.last_api_interaction,
		    updated_at = EXCLUDED.updated_at
	`, userID, now)
	if err != nil {
		return fmt.Errorf("failed to update last interaction: %w", err)
	}
	return nil
}

// ListActiveSince returns users who called the API after since
func (r *UserActivityRepository) ListActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT user_id FROM user_activity
		WHERE last_api_interaction >= $1
		ORDER BY last_api_interaction DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	return ids, nil
}
