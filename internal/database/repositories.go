package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/models"
)

// EventRepositoryInterface defines event storage used by handlers and workers
type EventRepositoryInterface interface {
	Create(ctx context.Context, event *models.Event, categoryColor string) (*EventWriteResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Event, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (*models.Event, error)
}

// CategoryRepositoryInterface defines category summary storage
type CategoryRepositoryInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error)
	Reconcile(ctx context.Context, userID uuid.UUID, colorFor func(string) string) (*ReconcileResult, error)
}

// SuggestionRepositoryInterface defines suggestion storage
type SuggestionRepositoryInterface interface {
	Create(ctx context.Context, s *models.Suggestion) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Suggestion, error)
	ExistsForCount(ctx context.Context, userID uuid.UUID, eventCount int) (bool, error)
}

// UserRepositoryInterface defines user storage used by auth and the worker
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// UserActivityRepositoryInterface defines the interface for user activity repository operations
type UserActivityRepositoryInterface interface {
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
	ListActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// Ensure concrete types implement the interfaces
var (
	_ EventRepositoryInterface        = (*EventRepository)(nil)
	_ CategoryRepositoryInterface     = (*CategoryRepository)(nil)
	_ SuggestionRepositoryInterface   = (*SuggestionRepository)(nil)
	_ UserRepositoryInterface         = (*UserRepository)(nil)
	_ UserActivityRepositoryInterface = (*UserActivityRepository)(nil)
)
