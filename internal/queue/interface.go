package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue publishes a job. Jobs with a future NotBefore go through the delayed exchange.
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue. The caller acks each message.
	// prefetchCount bounds unacknowledged messages per consumer.
	// Both channels are closed when ctx is cancelled or the delivery channel closes.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// Enqueuer is the publishing half of JobQueue
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// DLQPurger removes dead-lettered messages older than retention and reports how many were dropped
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
