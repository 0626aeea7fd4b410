package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideaboard/ideaboard/internal/clients/openai"
	"github.com/ideaboard/ideaboard/internal/config"
	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/handlers"
	"github.com/ideaboard/ideaboard/internal/jobs"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/ideaboard/ideaboard/internal/middleware"
	"github.com/ideaboard/ideaboard/internal/notify"
	"github.com/ideaboard/ideaboard/internal/services"
	"github.com/ideaboard/ideaboard/internal/similarity"
	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	logg.Info("starting ideaboard", "version", handlers.Version)

	if cfg.AdminPassword == "" {
		logg.Fatal("ADMIN_PASSWORD is not set")
	}
	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		logg.Fatal("failed to hash admin password", "error", err)
	}

	jwtAuth := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/login",
			"/widget/*",
			"/ws/*",
		},
	}, logg)

	if err := database.Connect(cfg.DatabaseURL, gormlogger.Warn); err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(); err != nil {
		logg.Fatal("failed to run database migrations", "error", err)
	}
	logg.Info("database ready")
	db := database.GetDB()

	// Embedding provider. Without an API key ideas simply stay "pending".
	var embedClient openai.Client
	if cfg.OpenAIAPIKey != "" {
		embedClient, err = openai.New(cfg.OpenAIAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithBaseURL(cfg.EmbeddingBaseURL),
		)
		if err != nil {
			logg.Fatal("failed to initialize embedding client", "error", err)
		}
	} else {
		logg.Warn("OPENAI_API_KEY not set, duplicate detection will stay pending")
		embedClient = openai.Unconfigured()
	}

	eventsWS := handlers.NewEventsWSHandler(logg)

	telemetry := jobs.NewTelemetryWorker(db, cfg.TelemetryQueueSize, eventsWS, logg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	telemetry.Start(ctx)
	defer telemetry.Stop()

	var notifier services.SuggestionNotifier
	if slackNotifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logg); slackNotifier != nil {
		notifier = slackNotifier
		logg.Info("slack notifications enabled")
	}

	index := similarity.NewIndex(db)
	workspaceService := services.NewWorkspaceService(db)
	voteService := services.NewVoteService(db, logg)
	mergeService := services.NewMergeService(db, logg)
	suggestionService := services.NewSuggestionService(db, telemetry, logg)
	dedupeService := services.NewDedupeService(db, index, telemetry, notifier, logg)
	embeddingService := services.NewEmbeddingService(db, embedClient, logg)

	apiHandler := handlers.NewAPIHandler(
		workspaceService, suggestionService, dedupeService,
		mergeService, voteService, embeddingService, telemetry, logg)
	authHandler := handlers.NewAuthHandler(jwtAuth, logg)
	httpHandler := handlers.NewHTTPHandler()

	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	eventsWS.SetupRoutes(mux)

	cors := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins...)
	handler := middleware.RequestIDMiddleware(cors.Wrap(jwtAuth.Wrap(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logg.Info("http server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown failed", "error", err)
	}
	if err := database.Close(); err != nil {
		logg.Error("database close failed", "error", err)
	}
}
