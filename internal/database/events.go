package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ticvision/ticvision/internal/models"
)

const eventColumns = `id, user_id, event_date, time_of_day, category, intensity, description, latitude, longitude, created_at`

// EventWriteResult describes the side effects of recording an event
type EventWriteResult struct {
	Event      *models.Event
	Category   *models.CategorySummary
	EventCount int // user's total after the write
}

// EventRepository handles event database operations
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event, creates or increments its category summary and
// bumps the user's event counter in a single transaction. categoryColor is
// only used when the summary does not exist yet.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, categoryColor string) (*EventWriteResult, error) {
	result := &EventWriteResult{Event: event}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO events (`+eventColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at
		`,
			event.ID,
			event.UserID,
			event.Date,
			event.TimeOfDay,
			event.Category,
			event.Intensity,
			event.Description,
			event.Latitude,
			event.Longitude,
			now,
		).Scan(&event.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}

		summary := &models.CategorySummary{}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO categories (user_id, name, count, color, created_at, updated_at)
			VALUES ($1, $2, 1, $3, $4, $4)
			ON CONFLICT (user_id, name) DO UPDATE SET
				count = categories.count + 1,
				updated_at = EXCLUDED.updated_at
			RETURNING user_id, name, count, color, created_at, updated_at
		`, event.UserID, event.Category, categoryColor, now).StructScan(summary)
		if err != nil {
			return fmt.Errorf("failed to upsert category summary: %w", err)
		}
		result.Category = summary

		err = tx.QueryRowxContext(ctx, `
			UPDATE users SET event_count = event_count + 1, updated_at = $2
			WHERE id = $1
			RETURNING event_count
		`, event.UserID, now).Scan(&result.EventCount)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", event.UserID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to increment event count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return result, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event := &models.Event{}
	err := r.db.GetContext(ctx, event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListByUser returns every event owned by the user. Order is unspecified.
func (r *EventRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, `SELECT `+eventColumns+` FROM events WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListRecentByUser returns the user's newest events, newest first
func (r *EventRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.SelectContext(ctx, &events, `
		SELECT `+eventColumns+` FROM events
		WHERE user_id = $1
		ORDER BY event_date DESC, created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	return events, nil
}

// Delete removes the user's event, decrements its category summary (deleting
// the summary when it would reach zero) and decrements the user's counter.
func (r *EventRepository) Delete(ctx context.Context, userID, id uuid.UUID) (*models.Event, error) {
	event := &models.Event{}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			DELETE FROM events WHERE id = $1 AND user_id = $2
			RETURNING `+eventColumns,
			id, userID,
		).StructScan(event)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}

		if err := decrementCategory(ctx, tx, userID, event.Category); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET event_count = GREATEST(event_count - 1, 0), updated_at = $2
			WHERE id = $1
		`, userID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to decrement event count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// decrementCategory deletes the summary at its last event, otherwise decrements it.
// A missing summary is tolerated; reconciliation repairs drift.
func decrementCategory(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, name string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE user_id = $1 AND name = $2 AND count <= 1`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete category summary: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if deleted > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE categories SET count = count - 1, updated_at = $3
		WHERE user_id = $1 AND name = $2
	`, userID, name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement category summary: %w", err)
	}
	return nil
}
