package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSuggestionGeneration asks the AI provider for coping suggestions after every tenth event
	JobTypeSuggestionGeneration JobType = "suggestion_generation"
	// JobTypeCategoryReconcile recomputes a user's category summaries from their events
	JobTypeCategoryReconcile JobType = "category_reconcile"
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	EventCount int            `json:"event_count,omitempty"` // user's event total when a suggestion was requested
	NotBefore  *time.Time     `json:"not_before,omitempty"`  // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`   // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewSuggestionJob creates a suggestion job for the user's eventCount-th event.
// Suggestions that cannot be produced within a day are dropped.
func NewSuggestionJob(userID uuid.UUID, eventCount int) *Job {
	job := NewJob(JobTypeSuggestionGeneration, userID)
	job.EventCount = eventCount
	notAfter := job.CreatedAt.Add(24 * time.Hour)
	job.NotAfter = &notAfter
	return job
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
