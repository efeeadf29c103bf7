package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
)

const defaultCORSOrigin = "http://localhost:3000"

// CORSConfigStore loads the persisted CORS configuration
type CORSConfigStore interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// CORSReloader wraps rs/cors and periodically reloads CORS config from the database.
type CORSReloader struct {
	repo     CORSConfigStore
	fallback string // e.g. FRONTEND_URL
	log      *zap.Logger
	interval time.Duration
	mu       sync.RWMutex
	current  *cors.Cors
}

// NewCORSReloader creates a CORS middleware that loads config from the DB and hot-reloads it.
func NewCORSReloader(ctx context.Context, repo CORSConfigStore, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	r := &CORSReloader{
		repo:     repo,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
	r.Reload(ctx)
	return r
}

// Middleware wraps next with the current CORS policy, read per request
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.RLock()
			c := r.current
			r.mu.RUnlock()
			c.Handler(next).ServeHTTP(w, req)
		})
	}
}

// Start runs the reload loop until ctx is cancelled.
func (r *CORSReloader) Start(ctx context.Context) {
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

// corsOptions derives rs/cors options from the stored config, falling back to FRONTEND_URL
func (r *CORSReloader) corsOptions(cfg *models.CorsConfig) cors.Options {
	origins := database.AllowedOriginsSlice(r.fallback)
	allowCreds, maxAge := true, 86400
	if cfg != nil {
		origins = database.AllowedOriginsSlice(cfg.AllowedOrigins)
		allowCreds = cfg.AllowCredentials
		maxAge = cfg.MaxAge
	}
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: allowCreds,
		MaxAge:           maxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		// Export downloads read the suggested file name
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
	}
}

// Reload reads the stored config and swaps in a new policy
func (r *CORSReloader) Reload(ctx context.Context) {
	cfg, err := r.repo.Get(ctx)
	if err != nil {
		r.log.Warn("failed_to_load_cors_config_using_fallback", zap.Error(err))
		cfg = nil
	}
	opts := r.corsOptions(cfg)
	c := cors.New(opts)

	r.mu.Lock()
	r.current = c
	r.mu.Unlock()

	r.log.Debug("cors_config_loaded", zap.Strings("allowed_origins", opts.AllowedOrigins))
}
