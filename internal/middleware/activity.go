package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/ticvision/ticvision/internal/logger"
)

// DefaultActivityInterval is the minimum time between activity writes for one user
const DefaultActivityInterval = time.Minute

// ActivityStore records API interactions
type ActivityStore interface {
	UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error
}

// ActivityTracker records the last API interaction per authenticated user.
// The nightly reconcile only visits users active in the last 30 days.
type ActivityTracker struct {
	store    ActivityStore
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	seen map[uuid.UUID]time.Time
}

// NewActivityTracker creates a new activity tracker
func NewActivityTracker(store ActivityStore, logger *zap.Logger) *ActivityTracker {
	return &ActivityTracker{
		store:    store,
		logger:   logger,
		interval: DefaultActivityInterval,
		now:      time.Now,
		seen:     make(map[uuid.UUID]time.Time),
	}
}

// Middleware updates the user's activity at most once per interval
func (at *ActivityTracker) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := UserFromContext(r); user != nil && at.due(user.ID) {
				if err := at.store.UpdateLastInteraction(r.Context(), user.ID); err != nil {
					// Activity tracking never fails the request
					at.logger.Warn("user_activity_update_failed",
						zap.String("user_id", logpkg.SanitizeUserID(user.ID.String())),
						zap.String("error", logpkg.SanitizeError(err)),
					)
					at.forget(user.ID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (at *ActivityTracker) due(userID uuid.UUID) bool {
	now := at.now()
	at.mu.Lock()
	defer at.mu.Unlock()
	if last, ok := at.seen[userID]; ok && now.Sub(last) < at.interval {
		return false
	}
	at.seen[userID] = now
	return true
}

func (at *ActivityTracker) forget(userID uuid.UUID) {
	at.mu.Lock()
	delete(at.seen, userID)
	at.mu.Unlock()
}
