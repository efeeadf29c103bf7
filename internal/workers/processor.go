package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/database"
	logpkg "github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/ai"
	"github.com/ticvision/ticvision/internal/telemetry"
)

// ErrPermanent marks failures that retrying cannot fix; such jobs go straight to the DLQ
var ErrPermanent = errors.New("permanent job failure")

// JobHandler processes one job type
type JobHandler interface {
	Handle(ctx context.Context, job *queue.Job) error
}

// JobHandlerFunc adapts a function to JobHandler
type JobHandlerFunc func(ctx context.Context, job *queue.Job) error

// Handle calls f
func (f JobHandlerFunc) Handle(ctx context.Context, job *queue.Job) error {
	return f(ctx, job)
}

// Processor dispatches queue messages to registered handlers and owns retry policy
type Processor struct {
	handlers map[queue.JobType]JobHandler
	jobQueue queue.Enqueuer // For re-enqueueing jobs with delays
	logger   *zap.Logger
	now      func() time.Time
}

// NewProcessor creates a new processor
func NewProcessor(jobQueue queue.Enqueuer, logger *zap.Logger) *Processor {
	return &Processor{
		handlers: make(map[queue.JobType]JobHandler),
		jobQueue: jobQueue,
		logger:   logger,
		now:      time.Now,
	}
}

// Register sets the handler for a job type
func (p *Processor) Register(jobType queue.JobType, h JobHandler) {
	p.handlers[jobType] = h
}

// Run processes messages until ctx is cancelled or the message channel closes
func (p *Processor) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("queue_error", zap.String("error", logpkg.SanitizeError(err)))
		case msg, ok := <-msgs:
			if !ok {
				p.logger.Info("message_channel_closed")
				return
			}
			if err := p.ProcessJob(ctx, msg); err != nil {
				job := msg.GetJob()
				p.logger.Error("failed_to_process_job",
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
			}
		}
	}
}

// ProcessJob processes a job based on its type. The message is always acked or nacked.
func (p *Processor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.IsExpired() {
		p.logger.Info("job_expired_dropped",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	// Delivered early when the delayed exchange is unavailable
	if !job.ShouldProcess() {
		p.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		return p.reschedule(ctx, msg, job, *job.NotBefore, false)
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			p.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	ctx = context.WithValue(ctx, ai.JobIDContextKey(), job.ID.String())
	ctx = context.WithValue(ctx, ai.UserIDContextKey(), job.UserID.String())

	ctx, span := telemetry.Tracer().Start(ctx, "job "+string(job.Type),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.Int("job.retry_count", job.RetryCount),
		),
	)
	defer span.End()

	if err := h.Handle(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		return p.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError reschedules retryable failures with a provider-aware delay and
// dead-letters the rest
func (p *Processor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logpkg.SanitizeError(err)),
	}

	if errors.Is(err, ErrPermanent) || errors.Is(err, database.ErrNotFound) {
		p.logger.Warn("job_failed_permanently", fields...)
		return p.deadLetter(msg, fmt.Errorf("job failed permanently: %w", err))
	}

	delay := ai.GetRetryDelay(err, job.RetryCount)

	switch {
	case ai.IsQuotaError(err):
		// Quota exhaustion is retried regardless of MaxRetries; the job expires via NotAfter
		p.logger.Warn("job_quota_exhausted", append(fields, zap.Duration("retry_in", delay))...)
		return p.reschedule(ctx, msg, job, p.now().Add(delay), true)

	case job.CanRetry():
		if ai.IsRateLimitError(err) {
			p.logger.Warn("job_rate_limited", append(fields, zap.Duration("retry_in", delay))...)
		} else {
			p.logger.Warn("job_failed_will_retry", append(fields, zap.Duration("retry_in", delay))...)
		}
		return p.reschedule(ctx, msg, job, p.now().Add(delay), true)
	}

	p.logger.Error("job_failed_max_retries", fields...)
	return p.deadLetter(msg, fmt.Errorf("job failed (max retries): %w", err))
}

// reschedule acks msg and publishes a copy with NotBefore set. If publishing fails the
// original is dead-lettered so it is never lost silently.
func (p *Processor) reschedule(ctx context.Context, msg queue.MessageInterface, job *queue.Job, notBefore time.Time, countRetry bool) error {
	if p.jobQueue == nil {
		return p.deadLetter(msg, errors.New("no queue access, cannot reschedule job"))
	}

	delayed := *job
	delayed.NotBefore = &notBefore
	if countRetry {
		delayed.RetryCount++
	}

	if err := p.jobQueue.Enqueue(ctx, &delayed); err != nil {
		return p.deadLetter(msg, fmt.Errorf("failed to re-enqueue job: %w", err))
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack rescheduled job: %w", ackErr)
	}

	p.logger.Info("job_rescheduled",
		zap.String("job_id", job.ID.String()),
		zap.Time("not_before", notBefore),
		zap.Int("retry_count", delayed.RetryCount),
	)
	return nil
}

func (p *Processor) deadLetter(msg queue.MessageInterface, err error) error {
	if nackErr := msg.Nack(false); nackErr != nil {
		p.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
	}
	return err
}
