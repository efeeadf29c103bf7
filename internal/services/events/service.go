// Package events records and deletes tic events for a user and triggers
// suggestion generation every tenth event.
package events

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/validation"
)

const (
	// MaxCategoryLength is the maximum category length after normalization
	MaxCategoryLength = 100
	// MaxDescriptionLength is the maximum description length after sanitization
	MaxDescriptionLength = 2000
)

var (
	// ErrNotFound is returned when the event does not exist
	ErrNotFound = errors.New("event not found")
	// ErrForbidden is returned when the event belongs to another user
	ErrForbidden = errors.New("event does not belong to user")
)

// ValidationError is returned for rejected input; Message is safe to show to clients
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CreateRequest is the client payload for a new event
type CreateRequest struct {
	Date        string   `json:"date" validate:"required,event_date"`
	TimeOfDay   string   `json:"time_of_day" validate:"required,time_of_day"`
	Category    string   `json:"category" validate:"required"`
	Intensity   int      `json:"intensity" validate:"required,min=1,max=10"`
	Description *string  `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Service writes and deletes events
type Service struct {
	events database.EventRepositoryInterface
	jobs   queue.Enqueuer
	logger *zap.Logger
	strip  *bluemonday.Policy
}

// NewService creates an event service. jobs may be nil, in which case no suggestions are requested.
func NewService(events database.EventRepositoryInterface, jobs queue.Enqueuer, logger *zap.Logger) *Service {
	return &Service{
		events: events,
		jobs:   jobs,
		logger: logger,
		strip:  bluemonday.StrictPolicy(),
	}
}

// Create validates and normalizes req, stores the event and updates the category summary.
// When the user's new total is a multiple of models.SuggestionInterval a suggestion job is enqueued;
// enqueue failures are logged and do not fail the write.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*database.EventWriteResult, error) {
	event, err := s.build(userID, req)
	if err != nil {
		return nil, err
	}

	result, err := s.events.Create(ctx, event, analytics.HashColor(event.Category))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Debug("event_created",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.String("category", logpkg.SanitizeCategory(event.Category)),
		zap.Int("event_count", result.EventCount),
	)

	if models.ShouldRequestSuggestion(result.EventCount) {
		s.requestSuggestion(ctx, userID, result.EventCount)
	}

	return result, nil
}

func (s *Service) requestSuggestion(ctx context.Context, userID uuid.UUID, eventCount int) {
	if s.jobs == nil {
		s.logger.Warn("suggestion_queue_unavailable",
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			zap.Int("event_count", eventCount),
		)
		return
	}

	job := queue.NewSuggestionJob(userID, eventCount)
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.Error("failed_to_enqueue_suggestion_job",
			zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
			zap.Int("event_count", eventCount),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return
	}

	s.logger.Info("suggestion_job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.Int("event_count", eventCount),
	)
}

// build validates req and returns the normalized event
func (s *Service) build(userID uuid.UUID, req CreateRequest) (*models.Event, error) {
	if err := validation.Validate.Struct(req); err != nil {
		return nil, &ValidationError{Message: validation.FieldErrorMessage(err)}
	}

	category := analytics.NormalizeCategory(validation.SanitizeText(req.Category))
	if category == "" {
		return nil, &ValidationError{Message: "Category is required and cannot be empty after sanitization"}
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return nil, &ValidationError{Message: fmt.Sprintf("Category exceeds maximum length of %d characters", MaxCategoryLength)}
	}

	event := &models.Event{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      strings.TrimSpace(req.Date),
		TimeOfDay: normalizeTimeOfDay(req.TimeOfDay),
		Category:  category,
		Intensity: req.Intensity,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	if req.Description != nil {
		// Descriptions are stored as plain text
		desc := validation.SanitizeText(html.UnescapeString(s.strip.Sanitize(*req.Description)))
		if utf8.RuneCountInString(desc) > MaxDescriptionLength {
			return nil, &ValidationError{Message: fmt.Sprintf("Description exceeds maximum length of %d characters", MaxDescriptionLength)}
		}
		if desc != "" {
			event.Description = &desc
		}
	}

	return event, nil
}

// normalizeTimeOfDay lowercases the named periods and keeps clock times as given
func normalizeTimeOfDay(s string) string {
	s = strings.TrimSpace(s)
	switch lower := strings.ToLower(s); lower {
	case models.TimeOfDayMorning, models.TimeOfDayAfternoon, models.TimeOfDayEvening, models.TimeOfDayNight:
		return lower
	}
	return s
}

// Delete removes the user's event. The category summary is decremented and
// removed once its count reaches zero.
func (s *Service) Delete(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	existing, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if existing.UserID != userID {
		return nil, ErrForbidden
	}

	deleted, err := s.events.Delete(ctx, userID, eventID)
	if errors.Is(err, database.ErrNotFound) {
		// Lost a race with a concurrent delete
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	s.logger.Debug("event_deleted",
		zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
		zap.String("category", logpkg.SanitizeCategory(deleted.Category)),
	)
	return deleted, nil
}
