package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/models"
)

// SuggestionRepository stores generated coping suggestions
type SuggestionRepository struct {
	db *DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// Create inserts a suggestion, assigning an ID when missing
func (r *SuggestionRepository) Create(ctx context.Context, s *models.Suggestion) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO suggestions (id, user_id, event_count, content_markdown, content_html, model, created_at)
		VALUES (:id, :user_id, :event_count, :content_markdown, :content_html, :model, :created_at)
	`, withCreatedAt(s))
	if err != nil {
		return fmt.Errorf("failed to create suggestion: %w", err)
	}
	return nil
}

func withCreatedAt(s *models.Suggestion) *models.Suggestion {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	return s
}

// ListByUser returns the user's suggestions, newest first
func (r *SuggestionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Suggestion, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.Suggestion
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, event_count, content_markdown, content_html, model, created_at
		FROM suggestions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return out, nil
}

// ExistsForCount reports whether a suggestion was already stored for the given event total.
// Redelivered jobs use it to avoid duplicate suggestions.
func (r *SuggestionRepository) ExistsForCount(ctx context.Context, userID uuid.UUID, eventCount int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM suggestions WHERE user_id = $1 AND event_count = $2)
	`, userID, eventCount)
	if err != nil {
		return false, fmt.Errorf("failed to check suggestion: %w", err)
	}
	return exists, nil
}
