package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/ai"
)

// DefaultSuggestionEventWindow is the number of most recent events a suggestion is based on
const DefaultSuggestionEventWindow = 200

// SuggestionGenerator turns a user's recent history into a stored suggestion
type SuggestionGenerator struct {
	provider    ai.SuggestionProvider
	renderer    *ai.Renderer
	events      database.EventRepositoryInterface
	categories  database.CategoryRepositoryInterface
	suggestions database.SuggestionRepositoryInterface
	window      int
	loc         *time.Location
	logger      *zap.Logger
	now         func() time.Time
}

// NewSuggestionGenerator creates a new suggestion generator
func NewSuggestionGenerator(
	provider ai.SuggestionProvider,
	events database.EventRepositoryInterface,
	categories database.CategoryRepositoryInterface,
	suggestions database.SuggestionRepositoryInterface,
	window int,
	loc *time.Location,
	logger *zap.Logger,
) *SuggestionGenerator {
	if window <= 0 {
		window = DefaultSuggestionEventWindow
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SuggestionGenerator{
		provider:    provider,
		renderer:    ai.NewRenderer(),
		events:      events,
		categories:  categories,
		suggestions: suggestions,
		window:      window,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// Handle processes a suggestion_generation job. A suggestion already stored for
// the same event count is not generated again, so redelivered jobs are harmless.
func (g *SuggestionGenerator) Handle(ctx context.Context, job *queue.Job) error {
	if job.EventCount <= 0 {
		return fmt.Errorf("%w: suggestion job %s has no event count", ErrPermanent, job.ID)
	}

	userField := zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String()))

	exists, err := g.suggestions.ExistsForCount(ctx, job.UserID, job.EventCount)
	if err != nil {
		return fmt.Errorf("failed to check existing suggestion: %w", err)
	}
	if exists {
		g.logger.Info("suggestion_already_generated", userField, zap.Int("event_count", job.EventCount))
		return nil
	}

	events, err := g.events.ListRecentByUser(ctx, job.UserID, g.window)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	if len(events) == 0 {
		// Every event was deleted after the job was queued
		g.logger.Info("suggestion_skipped_no_events", userField)
		return nil
	}

	categories, err := g.categories.ListByUser(ctx, job.UserID)
	if err != nil {
		g.logger.Warn("failed_to_load_categories_for_suggestion", userField, zap.String("error", logpkg.SanitizeError(err)))
		categories = nil
	}

	resp, err := g.provider.Suggest(ctx, &ai.SuggestionRequest{
		UserID:     job.UserID,
		EventCount: job.EventCount,
		Events:     events,
		Categories: categories,
		Now:        g.now().In(g.loc),
	})
	if err != nil {
		return fmt.Errorf("failed to generate suggestion: %w", err)
	}

	html, err := g.renderer.Render(resp.Markdown)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	suggestion := &models.Suggestion{
		ID:              uuid.New(),
		UserID:          job.UserID,
		EventCount:      job.EventCount,
		ContentMarkdown: resp.Markdown,
		ContentHTML:     html,
		Model:           resp.Model,
	}
	if err := g.suggestions.Create(ctx, suggestion); err != nil {
		return fmt.Errorf("failed to store suggestion: %w", err)
	}

	g.logger.Info("suggestion_generated",
		userField,
		zap.String("suggestion_id", suggestion.ID.String()),
		zap.Int("event_count", job.EventCount),
		zap.Int("events_considered", len(events)),
		zap.String("model", resp.Model),
	)
	return nil
}
