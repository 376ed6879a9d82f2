package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-blog-api/app/db"
	appLogger "github.com/FACorreiaa/go-blog-api/app/logger"
	"github.com/FACorreiaa/go-blog-api/app/observability/metrics"
	"github.com/FACorreiaa/go-blog-api/app/tracer"
	"github.com/FACorreiaa/go-blog-api/config"
	"github.com/FACorreiaa/go-blog-api/internal/api/auth"
	"github.com/FACorreiaa/go-blog-api/internal/api/post"
	"github.com/FACorreiaa/go-blog-api/internal/api/user"
	"github.com/FACorreiaa/go-blog-api/internal/router"
	"github.com/FACorreiaa/go-blog-api/internal/storage"
	"github.com/FACorreiaa/go-blog-api/internal/types"
	"github.com/FACorreiaa/go-blog-api/internal/uow"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	shutdownTelemetry, err := tracer.InitTracingAndMetrics(":9090", logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations before initializing the main pool.
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Object Storage ---
	objectStorage, err := storage.NewMinioStorage(cfg.S3, logger)
	if err != nil {
		logger.Error("Failed to initialize object storage", slog.Any("error", err))
		os.Exit(1)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		logger.Error("Failed to ensure object storage bucket", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	userRepo := user.NewPostgresUserRepo(pool, logger)
	postRepo := post.NewPostgresPostRepo(pool, logger)
	uowFactory := uow.NewFactory(pool, userRepo, postRepo, logger)

	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewJWTTokenGenerator(cfg.JWT)

	authService := auth.NewAuthService(uowFactory, hasher, tokens, logger)
	userService := user.NewUserService(uowFactory, objectStorage, logger)
	postService := post.NewPostService(uowFactory, objectStorage, logger)

	authHandler := auth.NewAuthHandler(authService, logger)
	userHandler := user.NewUserHandler(userService, logger)
	postHandler := post.NewPostHandler(postService, logger)

	// --- Router Setup ---
	mainRouter := router.SetupRouter(&router.Config{
		AuthHandler:            authHandler,
		UserHandler:            userHandler,
		PostHandler:            postHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT),
		RequireRole: func(minRole types.Role) func(http.Handler) http.Handler {
			return auth.RequireRole(logger, minRole)
		},
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(metrics.Middleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	httpTimeout := cfg.Server.Timeout
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	r.Use(middleware.Timeout(httpTimeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("Telemetry shutdown failed", slog.Any("error", err))
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
