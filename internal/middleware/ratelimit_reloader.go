package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/request"
)

// DefaultRatelimitRate is used until an operator stores a rate
const DefaultRatelimitRate = "10-S"

// RatelimitConfigStore loads and seeds the persisted rate
type RatelimitConfigStore interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// RateLimitReloader wraps ulule/limiter and periodically reloads rate limit config from the database.
type RateLimitReloader struct {
	store       limiter.Store
	repo        RatelimitConfigStore
	defaultRate string
	log         *zap.Logger
	interval    time.Duration
	mu          sync.RWMutex
	current     *stdlibmw.Middleware
	currentRate string
}

// NewRateLimitReloader creates a Redis-backed rate limiter whose rate is read from the DB and hot-reloaded.
func NewRateLimitReloader(ctx context.Context, redisClient *redis.Client, repo RatelimitConfigStore, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "ticvision_ratelimit"})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return newRateLimitReloader(ctx, store, repo, defaultRate, log, reloadInterval), nil
}

func newRateLimitReloader(ctx context.Context, store limiter.Store, repo RatelimitConfigStore, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = DefaultRatelimitRate
	}
	r := &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
		interval:    reloadInterval,
	}
	r.Reload(ctx)
	return r
}

// Middleware wraps next with the current limiter, read per request.
// Requests pass through unlimited if no valid rate could ever be loaded.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			mw := r.current
			r.mu.RUnlock()
			if mw == nil {
				next.ServeHTTP(w, req)
				return
			}
			mw.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Rate returns the formatted rate currently enforced
func (r *RateLimitReloader) Rate() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentRate
}

// Start runs the reload loop until ctx is cancelled.
func (r *RateLimitReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reload(ctx)
		}
	}
}

// rateString picks the stored rate, seeding the default when none exists
func (r *RateLimitReloader) rateString(ctx context.Context) string {
	cfg, err := r.repo.Get(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_ratelimit_config_from_db_using_default",
			zap.Error(err),
			zap.String("default_rate", r.defaultRate),
		)
	case cfg != nil && cfg.Rate != "":
		return cfg.Rate
	default:
		if err := r.repo.Set(ctx, &models.RatelimitConfig{Rate: r.defaultRate}); err != nil {
			r.log.Error("failed_to_save_default_ratelimit_config",
				zap.Error(err),
				zap.String("default_rate", r.defaultRate),
			)
		}
	}
	return r.defaultRate
}

// Reload reads the stored rate and swaps in a new limiter when it changed
func (r *RateLimitReloader) Reload(ctx context.Context) {
	rateStr := r.rateString(ctx)

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default",
			zap.Error(err),
			zap.String("rate_str", rateStr),
			zap.String("default_rate", r.defaultRate),
		)
		rateStr = r.defaultRate
		if rate, err = limiter.NewRateFromFormatted(rateStr); err != nil {
			r.log.Error("failed_to_parse_default_rate_limit", zap.Error(err))
			return
		}
	}

	r.mu.RLock()
	unchanged := r.current != nil && r.currentRate == rateStr
	r.mu.RUnlock()
	if unchanged {
		return
	}

	mw := stdlibmw.NewMiddleware(limiter.New(r.store, rate), stdlibmw.WithKeyGetter(rateLimitKey))

	r.mu.Lock()
	r.current = mw
	r.currentRate = rateStr
	r.mu.Unlock()

	r.log.Info("ratelimit_config_loaded", zap.String("rate", rateStr))
}

// rateLimitKey buckets authenticated callers by user and everyone else by client IP
func rateLimitKey(req *http.Request) string {
	if u := request.UserFromContext(req); u != nil {
		return "user:" + u.ID.String()
	}
	return "ip:" + request.ClientIP(req)
}
