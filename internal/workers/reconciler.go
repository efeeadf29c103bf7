package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/queue"
)

// Reconciler repairs category summary counts from the events table
type Reconciler struct {
	categories database.CategoryRepositoryInterface
	logger     *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(categories database.CategoryRepositoryInterface, logger *zap.Logger) *Reconciler {
	return &Reconciler{categories: categories, logger: logger}
}

// Handle processes a category_reconcile job
func (r *Reconciler) Handle(ctx context.Context, job *queue.Job) error {
	res, err := r.categories.Reconcile(ctx, job.UserID, analytics.HashColor)
	if err != nil {
		return fmt.Errorf("failed to reconcile categories: %w", err)
	}

	level := r.logger.Debug
	if res.Created+res.Updated+res.Deleted > 0 {
		// Drift means an event write or delete skipped its summary update
		level = r.logger.Info
	}
	level("categories_reconciled",
		zap.String("user_id", logpkg.SanitizeUserID(job.UserID.String())),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("deleted", res.Deleted),
		zap.Int("event_count", res.EventCount),
	)
	return nil
}
