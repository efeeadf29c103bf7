package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/api"
	"github.com/ticvision/ticvision/internal/config"
	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/handlers"
	"github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/middleware"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/events"
	"github.com/ticvision/ticvision/internal/services/oidc"
	"github.com/ticvision/ticvision/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// A local .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("api", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	loc := cfg.Location()
	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("timezone", loc.String()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	var tracerEnabled bool
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Options{
				ServiceName:    "ticvision-api",
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
				Insecure:       cfg.OTELInsecure,
				SampleRatio:    cfg.OTELSampleRatio,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
		}
		schemaVersion, err := db.MigrationVersion()
		if err != nil {
			zapLogger.Warn("failed_to_read_migration_version", zap.Error(err))
		}
		zapLogger.Info("database_migrated", zap.Int64("schema_version", schemaVersion))
	}

	// Long-lived context for reload loops; cancelled on shutdown
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	redisClient, err := middleware.NewRedisClient(appCtx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	jobQueue := connectQueue(cfg, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Repositories
	eventRepo := database.NewEventRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	suggestionRepo := database.NewSuggestionRepository(db)
	userRepo := database.NewUserRepository(db)
	activityRepo := database.NewUserActivityRepository(db)
	oidcConfigRepo := database.NewOIDCConfigRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	// Services
	oidcProvider := oidc.NewProvider(oidcConfigRepo)
	authenticator := oidc.NewAuthenticator(oidcProvider, oidc.NewJWKSManager(), cfg.OIDCProvider)
	eventService := events.NewService(eventRepo, jobQueue, zapLogger)
	clock := handlers.NewClock(loc)

	// Handlers
	authHandler := handlers.NewAuthHandler(oidcProvider, cfg.OIDCProvider, zapLogger)
	eventHandler := handlers.NewEventHandler(eventRepo, eventService, clock, zapLogger)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo, zapLogger)
	chartHandler := handlers.NewChartHandler(eventRepo, categoryRepo, clock, zapLogger)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionRepo, zapLogger)
	openAPIHandler := handlers.NewOpenAPIHandler(api.OpenAPISpec)
	healthChecker := handlers.NewHealthChecker(map[string]handlers.Checker{
		"database": db,
		"redis": handlers.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
		"queue": jobQueue,
	})

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first
	zapLogger.Info("setting_up_middleware")
	if tracerEnabled {
		r.Use(otelmux.Middleware("ticvision-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))

	corsReloader := middleware.NewCORSReloader(appCtx, corsConfigRepo, cfg.FrontendURL, zapLogger, time.Minute)
	r.Use(corsReloader.Middleware())

	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Rate limiting is applied per subrouter so health probes are never throttled
	rateLimitReloader, err := middleware.NewRateLimitReloader(appCtx, redisClient, ratelimitConfigRepo, middleware.DefaultRatelimitRate, zapLogger, time.Minute)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_reloader", zap.Error(err))
	}
	rateLimitMW := rateLimitReloader.Middleware()
	authMW := middleware.Auth(authenticator, userRepo, zapLogger)
	activityMW := middleware.NewActivityTracker(activityRepo, zapLogger).Middleware()

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	openAPIHandler.RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	loginRouter := authRouter.PathPrefix("").Subrouter()
	loginRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(loginRouter)

	// Auth runs before the limiter so limits are keyed per user
	protectedAuthRouter := authRouter.PathPrefix("").Subrouter()
	protectedAuthRouter.Use(authMW)
	protectedAuthRouter.Use(rateLimitMW)
	authHandler.RegisterRoutes(protectedAuthRouter)

	protected := apiRouter.PathPrefix("").Subrouter()
	protected.Use(authMW)
	protected.Use(rateLimitMW)
	protected.Use(activityMW)

	eventHandler.RegisterRoutes(protected.PathPrefix("/events").Subrouter())
	categoryHandler.RegisterRoutes(protected.PathPrefix("/categories").Subrouter())
	suggestionHandler.RegisterRoutes(protected.PathPrefix("/suggestions").Subrouter())
	chartHandler.RegisterRoutes(protected)

	// Preflight requests are answered by the CORS middleware
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second, // PDF export can take a while
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go corsReloader.Start(appCtx)
	go rateLimitReloader.Start(appCtx)

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	appCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

// connectQueue retries the RabbitMQ connection with exponential backoff to
// ride out broker startup
func connectQueue(cfg *config.Config, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}

		lastErr = err
		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":%q,"timestamp":"%s"}`, version, time.Now().UTC().Format(time.RFC3339))
}
