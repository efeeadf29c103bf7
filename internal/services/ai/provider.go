package ai

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ticvision/ticvision/internal/models"
)

// SuggestionProvider produces coping suggestions from a user's tracked events
type SuggestionProvider interface {
	// Suggest returns markdown advice for the request's event history
	Suggest(ctx context.Context, req *SuggestionRequest) (*SuggestionResponse, error)
}

// SuggestionRequest carries the history a suggestion is based on
type SuggestionRequest struct {
	UserID     uuid.UUID
	EventCount int
	Events     []models.Event
	Categories []models.CategorySummary
	Now        time.Time
}

// SuggestionResponse is the raw provider output
type SuggestionResponse struct {
	Markdown string
	Model    string
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string) (SuggestionProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (SuggestionProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
