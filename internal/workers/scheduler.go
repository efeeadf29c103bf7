package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/queue"
)

// DefaultActiveWindow limits nightly reconciliation to recently active users
const DefaultActiveWindow = 30 * 24 * time.Hour

// ActiveUserLister returns users with API activity since a point in time
type ActiveUserLister interface {
	ListActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// DLQCollector purges expired dead letters
type DLQCollector interface {
	Collect(ctx context.Context) error
}

// Scheduler runs periodic maintenance: reconciliation enqueue and DLQ garbage collection
type Scheduler struct {
	cron         *cron.Cron
	jobQueue     queue.Enqueuer
	activity     ActiveUserLister
	gc           DLQCollector
	activeWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a scheduler evaluating cron specs in loc
func NewScheduler(jobQueue queue.Enqueuer, activity ActiveUserLister, gc DLQCollector, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobQueue:     jobQueue,
		activity:     activity,
		gc:           gc,
		activeWindow: DefaultActiveWindow,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers both schedules and starts the cron runner
func (s *Scheduler) Start(ctx context.Context, reconcileSpec, gcSpec string) error {
	if _, err := s.cron.AddFunc(reconcileSpec, func() {
		if _, err := s.EnqueueReconciliation(ctx); err != nil {
			s.logger.Error("failed_to_schedule_reconciliation", zap.String("error", logpkg.SanitizeError(err)))
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", reconcileSpec, err)
	}

	if s.gc != nil {
		if _, err := s.cron.AddFunc(gcSpec, func() {
			// Collect logs its own failures
			_ = s.gc.Collect(ctx)
		}); err != nil {
			return fmt.Errorf("invalid dlq gc schedule %q: %w", gcSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler_started",
		zap.Int("jobs", len(s.cron.Entries())),
		zap.String("reconcile_schedule", reconcileSpec),
		zap.String("dlq_gc_schedule", gcSpec),
	)
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler_stopped")
}

// EnqueueReconciliation enqueues a category_reconcile job for every recently active user
func (s *Scheduler) EnqueueReconciliation(ctx context.Context) (int, error) {
	users, err := s.activity.ListActiveSince(ctx, s.now().Add(-s.activeWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	enqueued := 0
	for _, userID := range users {
		job := queue.NewJob(queue.JobTypeCategoryReconcile, userID)
		// A reconcile that waits past the next nightly run is redundant
		notAfter := job.CreatedAt.Add(24 * time.Hour)
		job.NotAfter = &notAfter

		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("failed_to_enqueue_reconcile_job",
				zap.String("user_id", logpkg.SanitizeUserID(userID.String())),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			continue
		}
		enqueued++
	}

	s.logger.Info("scheduled_reconciliation_jobs",
		zap.Int("user_count", len(users)),
		zap.Int("enqueued", enqueued),
	)
	return enqueued, nil
}

// cronLogger routes robfig/cron logs through zap
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron_"+msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron_"+msg, zap.Error(err), zap.Any("details", keysAndValues))
}
