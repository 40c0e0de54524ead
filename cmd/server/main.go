package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/api"
	"github.com/Mseunghwan/NoSmoke/internal/companion"
	"github.com/Mseunghwan/NoSmoke/internal/config"
	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/handlers"
	"github.com/Mseunghwan/NoSmoke/internal/inference"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/realtime"
	"github.com/Mseunghwan/NoSmoke/internal/store"
	"github.com/Mseunghwan/NoSmoke/internal/worker"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize message store: PostgreSQL when configured, SQLite otherwise
	var st store.Store
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		st = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.DatabasePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		st = sqliteStore
		logger.Info().Str("path", cfg.DatabasePath).Msg("opened SQLite store")
	}

	// Initialize job queue: Redis when configured, in-process otherwise
	var q queue.Queue
	if cfg.RedisURL != "" {
		redisQueue, err := queue.NewRedisQueue(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisQueue.Close()
		q = redisQueue
		logger.Info().Msg("connected to Redis job queue")
	} else {
		q = queue.NewMemQueue(256)
		logger.Warn().Msg("REDIS_URL not set, using in-process job queue (jobs do not survive restarts)")
	}

	// Initialize inference client: Gemini when a key is present, mock otherwise
	var client inference.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := inference.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini client failed")
		}
		client = geminiClient
		logger.Info().Str("model", cfg.GeminiModel).Msg("using Gemini inference")
	} else {
		client = inference.NewMockClient()
		logger.Warn().Msg("GEMINI_API_KEY not set, using mock inference client")
	}

	// Wire the pipeline
	hub := dispatch.NewHub(logger)
	svc := companion.NewService(st, q, logger)
	greeter := companion.NewGreeter(st, hub, cfg.GreetingDelay, logger)
	hub.AddSubscribeListener(greeter.Listener())

	// Exactly one worker goroutine: calls to the rate-limited inference
	// backend are serialized by construction.
	workerCtx, stopWorker := context.WithCancel(ctx)
	w := worker.New(q, st, hub, client, cfg.InferenceTimeout, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		w.Run(workerCtx)
	}()

	// Create router
	router := api.NewRouter(logger, handlers.NewHandler(svc, st, q), realtime.NewServer(hub, logger))

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting companion server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	stopWorker()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("worker did not stop in time")
	}

	logger.Info().Msg("server stopped")
}
