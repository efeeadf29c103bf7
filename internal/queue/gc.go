package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// GarbageCollector purges dead-lettered jobs older than retention.
// Collect is driven by the worker's cron schedule.
type GarbageCollector struct {
	dlqPurger DLQPurger
	retention time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(purger DLQPurger, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{
		dlqPurger: purger,
		retention: retention,
		logger:    logger,
	}
}

// Collect purges DLQ messages older than retention
func (gc *GarbageCollector) Collect(ctx context.Context) error {
	if gc.dlqPurger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	n, err := gc.dlqPurger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		gc.logger.Error("dlq_gc_failed", zap.Error(err))
		return fmt.Errorf("DLQ purge: %w", err)
	}
	if n > 0 {
		gc.logger.Info("dlq_gc_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
		)
	}
	return nil
}
