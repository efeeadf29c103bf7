package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/services/events"
)

type mockEventStore struct {
	events []models.Event
	err    error
}

func (m *mockEventStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Event
	for _, e := range m.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockCategoryStore struct {
	summaries []models.CategorySummary
	err       error
}

func (m *mockCategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.CategorySummary(nil), m.summaries...), nil
}

type mockEventWriter struct {
	createFunc func(ctx context.Context, userID uuid.UUID, req events.CreateRequest) (*database.EventWriteResult, error)
	deleteFunc func(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error)
}

func (m *mockEventWriter) Create(ctx context.Context, userID uuid.UUID, req events.CreateRequest) (*database.EventWriteResult, error) {
	return m.createFunc(ctx, userID, req)
}

func (m *mockEventWriter) Delete(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	return m.deleteFunc(ctx, userID, eventID)
}

type mockSuggestionStore struct {
	gotLimit    int
	suggestions []models.Suggestion
	err         error
}

func (m *mockSuggestionStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Suggestion, error) {
	m.gotLimit = limit
	return m.suggestions, m.err
}
