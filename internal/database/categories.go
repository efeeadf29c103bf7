package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ticvision/ticvision/internal/models"
)

// CategoryRepository handles category summary database operations
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByUser returns the user's category summaries ordered by name
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error) {
	var summaries []models.CategorySummary
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT user_id, name, count, color, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return summaries, nil
}

// ReconcileResult reports what a reconciliation changed
type ReconcileResult struct {
	Updated    int
	Created    int
	Deleted    int
	EventCount int
}

type categoryCount struct {
	Name  string `db:"category"`
	Count int    `db:"n"`
}

// Reconcile recomputes the user's summaries and event counter from the events table.
// Summaries without events are deleted, missing ones are created with colorFor(name),
// and existing colors are kept.
func (r *CategoryRepository) Reconcile(ctx context.Context, userID uuid.UUID, colorFor func(string) string) (*ReconcileResult, error) {
	result := &ReconcileResult{}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var counts []categoryCount
		err := tx.SelectContext(ctx, &counts, `
			SELECT category, COUNT(*) AS n FROM events
			WHERE user_id = $1
			GROUP BY category
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to count events: %w", err)
		}

		var existing []models.CategorySummary
		err = tx.SelectContext(ctx, &existing, `
			SELECT user_id, name, count, color, created_at, updated_at
			FROM categories WHERE user_id = $1
			FOR UPDATE
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}

		current := make(map[string]int, len(existing))
		for _, s := range existing {
			current[s.Name] = s.Count
		}

		now := time.Now()
		seen := make(map[string]struct{}, len(counts))
		for _, c := range counts {
			seen[c.Name] = struct{}{}
			result.EventCount += c.Count

			prev, ok := current[c.Name]
			switch {
			case !ok:
				_, err = tx.ExecContext(ctx, `
					INSERT INTO categories (user_id, name, count, color, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $5)
				`, userID, c.Name, c.Count, colorFor(c.Name), now)
				if err != nil {
					return fmt.Errorf("failed to create category summary: %w", err)
				}
				result.Created++
			case prev != c.Count:
				_, err = tx.ExecContext(ctx, `
					UPDATE categories SET count = $3, updated_at = $4
					WHERE user_id = $1 AND name = $2
				`, userID, c.Name, c.Count, now)
				if err != nil {
					return fmt.Errorf("failed to update category summary: %w", err)
				}
				result.Updated++
			}
		}

		for name := range current {
			if _, ok := seen[name]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE user_id = $1 AND name = $2`, userID, name); err != nil {
				return fmt.Errorf("failed to delete stale category summary: %w", err)
			}
			result.Deleted++
		}

		_, err = tx.ExecContext(ctx, `UPDATE users SET event_count = $2, updated_at = $3 WHERE id = $1`, userID, result.EventCount, now)
		if err != nil {
			return fmt.Errorf("failed to update event count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile categories: %w", err)
	}

	return result, nil
}
