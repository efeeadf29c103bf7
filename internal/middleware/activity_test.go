package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/models"
)

type mockActivityStore struct {
	mu      sync.Mutex
	calls   []uuid.UUID
	failErr error
}

func (m *mockActivityStore) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, userID)
	return m.failErr
}

func (m *mockActivityStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func serveAs(h http.Handler, user *models.User) int {
	req := httptest.NewRequest("GET", "/api/v1/events", nil)
	if user != nil {
		req = req.WithContext(SetUserInContext(req.Context(), user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestActivityTracker_Throttles(t *testing.T) {
	t.Parallel()

	store := &mockActivityStore{}
	tracker := NewActivityTracker(store, zap.NewNop())
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	h := tracker.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	user := &models.User{ID: uuid.New()}

	serveAs(h, user)
	serveAs(h, user)
	if got := store.count(); got != 1 {
		t.Fatalf("expected one write within the interval, got %d", got)
	}

	now = now.Add(DefaultActivityInterval)
	serveAs(h, user)
	if got := store.count(); got != 2 {
		t.Errorf("expected a second write after the interval, got %d", got)
	}

	serveAs(h, &models.User{ID: uuid.New()})
	if got := store.count(); got != 3 {
		t.Errorf("expected other users to be tracked independently, got %d", got)
	}
}

func TestActivityTracker_Anonymous(t *testing.T) {
	t.Parallel()

	store := &mockActivityStore{}
	h := NewActivityTracker(store, zap.NewNop()).Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if code := serveAs(h, nil); code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
	if store.count() != 0 {
		t.Error("anonymous requests should not be tracked")
	}
}

func TestActivityTracker_FailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	store := &mockActivityStore{failErr: errors.New("db down")}
	h := NewActivityTracker(store, zap.NewNop()).Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	user := &models.User{ID: uuid.New()}

	if code := serveAs(h, user); code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", code)
	}
	serveAs(h, user)
	if got := store.count(); got != 2 {
		t.Errorf("failed writes should be retried on the next request, got %d calls", got)
	}
}
