package workers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/ai"
)

// mockMessage records how a message was settled
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockEnqueuer collects enqueued jobs
type mockEnqueuer struct {
	mu          sync.Mutex
	jobs        []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

var _ queue.Enqueuer = (*mockEnqueuer)(nil)

type mockEventRepo struct {
	listRecentFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Event, error)
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event, categoryColor string) (*database.EventWriteResult, error) {
	return nil, nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return nil, database.ErrNotFound
}

func (m *mockEventRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	return nil, nil
}

func (m *mockEventRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Event, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockEventRepo) Delete(ctx context.Context, userID, id uuid.UUID) (*models.Event, error) {
	return nil, database.ErrNotFound
}

var _ database.EventRepositoryInterface = (*mockEventRepo)(nil)

type mockCategoryRepo struct {
	listFunc      func(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error)
	reconcileFunc func(ctx context.Context, userID uuid.UUID, colorFor func(string) string) (*database.ReconcileResult, error)
}

func (m *mockCategoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CategorySummary, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Reconcile(ctx context.Context, userID uuid.UUID, colorFor func(string) string) (*database.ReconcileResult, error) {
	if m.reconcileFunc != nil {
		return m.reconcileFunc(ctx, userID, colorFor)
	}
	return &database.ReconcileResult{}, nil
}

var _ database.CategoryRepositoryInterface = (*mockCategoryRepo)(nil)

type mockSuggestionRepo struct {
	created    []*models.Suggestion
	existsFunc func(ctx context.Context, userID uuid.UUID, eventCount int) (bool, error)
	createErr  error
}

func (m *mockSuggestionRepo) Create(ctx context.Context, s *models.Suggestion) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, s)
	return nil
}

func (m *mockSuggestionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Suggestion, error) {
	return nil, nil
}

func (m *mockSuggestionRepo) ExistsForCount(ctx context.Context, userID uuid.UUID, eventCount int) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, userID, eventCount)
	}
	return false, nil
}

var _ database.SuggestionRepositoryInterface = (*mockSuggestionRepo)(nil)

type mockProvider struct {
	suggestFunc func(ctx context.Context, req *ai.SuggestionRequest) (*ai.SuggestionResponse, error)
	calls       int
}

func (m *mockProvider) Suggest(ctx context.Context, req *ai.SuggestionRequest) (*ai.SuggestionResponse, error) {
	m.calls++
	if m.suggestFunc != nil {
		return m.suggestFunc(ctx, req)
	}
	return &ai.SuggestionResponse{Markdown: "Try **box breathing**.", Model: "test-model"}, nil
}

var _ ai.SuggestionProvider = (*mockProvider)(nil)

type mockActivityLister struct {
	since time.Time
	users []uuid.UUID
	err   error
}

func (m *mockActivityLister) ListActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	m.since = since
	return m.users, m.err
}

var _ ActiveUserLister = (*mockActivityLister)(nil)
