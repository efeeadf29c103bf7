package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ticvision/ticvision/internal/config"
	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/logger"
	"github.com/ticvision/ticvision/internal/queue"
	"github.com/ticvision/ticvision/internal/services/ai"
	"github.com/ticvision/ticvision/internal/telemetry"
	"github.com/ticvision/ticvision/internal/workers"
)

var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("worker", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.String("reconcile_schedule", cfg.ReconcileSchedule),
	)

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.Options{
			ServiceName:    "ticvision-worker",
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
			Insecure:       cfg.OTELInsecure,
			SampleRatio:    cfg.OTELSampleRatio,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
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

	eventRepo := database.NewEventRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	suggestionRepo := database.NewSuggestionRepository(db)
	activityRepo := database.NewUserActivityRepository(db)

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, zapLogger, debugMode)
	aiProvider, err := registry.GetProvider(cfg.AIProvider, map[string]string{
		"api_key":             cfg.OpenAIKey,
		"model":               cfg.AIModel,
		"base_url":            cfg.AIBaseURL,
		"requests_per_minute": strconv.Itoa(cfg.AIRequestsPerMin),
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_ai_provider", zap.String("provider", cfg.AIProvider), zap.Error(err))
	}
	zapLogger.Info("initialized_ai_provider", zap.String("provider", cfg.AIProvider))

	processor := workers.NewProcessor(jobQueue, zapLogger)
	processor.Register(queue.JobTypeSuggestionGeneration, workers.NewSuggestionGenerator(
		aiProvider,
		eventRepo,
		categoryRepo,
		suggestionRepo,
		cfg.SuggestionEventWindow,
		cfg.Location(),
		zapLogger,
	))
	processor.Register(queue.JobTypeCategoryReconcile, workers.NewReconciler(categoryRepo, zapLogger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc := queue.NewGarbageCollector(jobQueue, cfg.DLQRetention, zapLogger)
	scheduler := workers.NewScheduler(jobQueue, activityRepo, gc, cfg.Location(), zapLogger)
	if err := scheduler.Start(ctx, cfg.ReconcileSchedule, cfg.DLQGCSchedule); err != nil {
		zapLogger.Fatal("failed_to_start_scheduler", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(ctx, msgChan, errChan)
	}()

	select {
	case <-sigChan:
		zapLogger.Info("shutdown_signal_received")
	case <-done:
		zapLogger.Warn("consumer_stopped_unexpectedly")
	}

	cancel()
	scheduler.Stop()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		zapLogger.Warn("in_flight_job_did_not_finish")
	}

	zapLogger.Info("worker_stopped")
}
