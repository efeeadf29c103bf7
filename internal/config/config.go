package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string `env:"DATABASE_URL"`
	AutoMigrate      bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
	ServerPort       string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL          string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL      string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	OpenAIKey        string `env:"OPENAI_API_KEY"`
	AIProvider       string `env:"AI_PROVIDER" envDefault:"openai"`
	AIModel          string `env:"AI_MODEL"`
	AIBaseURL        string `env:"AI_BASE_URL"`
	AIRequestsPerMin int    `env:"AI_REQUESTS_PER_MINUTE" envDefault:"20"`
	EnableHSTS       bool   `env:"ENABLE_HSTS" envDefault:"false"`
	OIDCProvider     string `env:"OIDC_PROVIDER" envDefault:"firebase"`
	RedisURL         string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQPrefetch int    `env:"RABBITMQ_PREFETCH" envDefault:"1"`
	WorkerDebugMode  bool   `env:"WORKER_DEBUG_MODE" envDefault:"false"`
	ServerDebugMode  bool   `env:"SERVER_DEBUG_MODE" envDefault:"false"`
	OTELEnabled      bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELInsecure     bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	// Fraction of new traces sampled, parent decisions are always honored
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`

	// Timezone used to evaluate "today", calendar month and calendar year ranges
	Timezone string `env:"TICVISION_TIMEZONE" envDefault:"UTC"`

	// Worker schedules (robfig/cron spec strings)
	ReconcileSchedule string        `env:"RECONCILE_SCHEDULE" envDefault:"0 3 * * *"`
	DLQGCSchedule     string        `env:"DLQ_GC_SCHEDULE" envDefault:"@hourly"`
	DLQRetention      time.Duration `env:"DLQ_RETENTION" envDefault:"168h"`

	// Number of most recent events summarized in a suggestion prompt
	SuggestionEventWindow int `env:"SUGGESTION_EVENT_WINDOW" envDefault:"200"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(nil)
}

// load parses environ, or the process environment when environ is nil
func load(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, errors.New("RABBITMQ_URL is required for job queueing (suggestions require RabbitMQ)")
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TICVISION_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if cfg.AIRequestsPerMin <= 0 {
		cfg.AIRequestsPerMin = 20
	}
	if cfg.SuggestionEventWindow <= 0 {
		cfg.SuggestionEventWindow = 200
	}

	return cfg, nil
}

// Location returns the configured time zone, UTC when it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
