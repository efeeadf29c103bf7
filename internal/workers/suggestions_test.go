package workers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/ai"
)

func sampleEvents(userID uuid.UUID, n int) []models.Event {
	events := make([]models.Event, n)
	for i := range events {
		events[i] = models.Event{
			ID:        uuid.New(),
			UserID:    userID,
			Date:      "2024-01-02",
			TimeOfDay: "morning",
			Category:  "Vocal",
			Intensity: 5,
		}
	}
	return events
}

func TestSuggestionGenerator_Handle(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tests := []struct {
		name            string
		job             *queue.Job
		exists          bool
		events          []models.Event
		eventsErr       error
		categoriesErr   error
		suggestErr      error
		wantErr         bool
		wantPermanent   bool
		wantProvider    bool
		wantSuggestions int
	}{
		{
			name:            "generates and stores suggestion",
			job:             queue.NewSuggestionJob(userID, 10),
			events:          sampleEvents(userID, 10),
			wantProvider:    true,
			wantSuggestions: 1,
		},
		{
			name:          "missing event count is permanent",
			job:           queue.NewJob(queue.JobTypeSuggestionGeneration, userID),
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:   "existing suggestion is not regenerated",
			job:    queue.NewSuggestionJob(userID, 20),
			exists: true,
			events: sampleEvents(userID, 20),
		},
		{
			name: "no events left is skipped",
			job:  queue.NewSuggestionJob(userID, 10),
		},
		{
			name:      "event load failure is retryable",
			job:       queue.NewSuggestionJob(userID, 10),
			eventsErr: errors.New("db down"),
			wantErr:   true,
		},
		{
			name:            "category load failure still generates",
			job:             queue.NewSuggestionJob(userID, 10),
			events:          sampleEvents(userID, 10),
			categoriesErr:   errors.New("db down"),
			wantProvider:    true,
			wantSuggestions: 1,
		},
		{
			name:         "provider failure is returned",
			job:          queue.NewSuggestionJob(userID, 10),
			events:       sampleEvents(userID, 10),
			suggestErr:   ai.ErrRateLimited,
			wantErr:      true,
			wantProvider: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &mockProvider{}
			if tt.suggestErr != nil {
				provider.suggestFunc = func(ctx context.Context, req *ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
					return nil, tt.suggestErr
				}
			}
			events := &mockEventRepo{
				listRecentFunc: func(ctx context.Context, id uuid.UUID, limit int) ([]models.Event, error) {
					if limit != 50 {
						t.Errorf("expected window 50, got %d", limit)
					}
					return tt.events, tt.eventsErr
				},
			}
			categories := &mockCategoryRepo{
				listFunc: func(ctx context.Context, id uuid.UUID) ([]models.CategorySummary, error) {
					if tt.categoriesErr != nil {
						return nil, tt.categoriesErr
					}
					return []models.CategorySummary{{Name: "Vocal", Count: 10, Color: "#123456"}}, nil
				},
			}
			suggestions := &mockSuggestionRepo{
				existsFunc: func(ctx context.Context, id uuid.UUID, count int) (bool, error) {
					return tt.exists, nil
				},
			}

			g := NewSuggestionGenerator(provider, events, categories, suggestions, 50, time.UTC, zap.NewNop())
			err := g.Handle(context.Background(), tt.job)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantPermanent && !errors.Is(err, ErrPermanent) {
				t.Errorf("expected permanent error, got %v", err)
			}
			if (provider.calls > 0) != tt.wantProvider {
				t.Errorf("provider called = %v, want %v", provider.calls > 0, tt.wantProvider)
			}
			if len(suggestions.created) != tt.wantSuggestions {
				t.Fatalf("expected %d stored suggestions, got %d", tt.wantSuggestions, len(suggestions.created))
			}
			if tt.wantSuggestions > 0 {
				s := suggestions.created[0]
				if s.UserID != userID || s.EventCount != tt.job.EventCount {
					t.Errorf("unexpected suggestion owner or count: %+v", s)
				}
				if !strings.Contains(s.ContentHTML, "<strong>box breathing</strong>") {
					t.Errorf("expected rendered HTML, got %q", s.ContentHTML)
				}
				if s.Model != "test-model" {
					t.Errorf("expected model test-model, got %q", s.Model)
				}
			}
		})
	}
}

func TestSuggestionGenerator_PassesHistory(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fixed := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	var got *ai.SuggestionRequest
	provider := &mockProvider{
		suggestFunc: func(ctx context.Context, req *ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
			got = req
			return &ai.SuggestionResponse{Markdown: "ok", Model: "m"}, nil
		},
	}
	events := &mockEventRepo{
		listRecentFunc: func(ctx context.Context, id uuid.UUID, limit int) ([]models.Event, error) {
			return sampleEvents(id, 3), nil
		},
	}

	g := NewSuggestionGenerator(provider, events, &mockCategoryRepo{}, &mockSuggestionRepo{}, 0, nil, zap.NewNop())
	g.now = func() time.Time { return fixed }

	if err := g.Handle(context.Background(), queue.NewSuggestionJob(userID, 30)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if got == nil {
		t.Fatal("provider was not called")
	}
	if got.UserID != userID || got.EventCount != 30 || len(got.Events) != 3 {
		t.Errorf("unexpected request: user=%s count=%d events=%d", got.UserID, got.EventCount, len(got.Events))
	}
	if !got.Now.Equal(fixed) {
		t.Errorf("expected Now %v, got %v", fixed, got.Now)
	}
	if g.window != DefaultSuggestionEventWindow {
		t.Errorf("expected default window %d, got %d", DefaultSuggestionEventWindow, g.window)
	}
}
