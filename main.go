package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ivv-works/ivv-engine/pkg/auth"
	"github.com/ivv-works/ivv-engine/pkg/config"
	"github.com/ivv-works/ivv-engine/pkg/database"
	"github.com/ivv-works/ivv-engine/pkg/handlers"
	"github.com/ivv-works/ivv-engine/pkg/llm"
	"github.com/ivv-works/ivv-engine/pkg/middleware"
	"github.com/ivv-works/ivv-engine/pkg/repositories"
	"github.com/ivv-works/ivv-engine/pkg/search"
	"github.com/ivv-works/ivv-engine/pkg/services"
	"github.com/ivv-works/ivv-engine/pkg/storage"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ivv-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations use database/sql; the pgx stdlib driver shares the config.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	if err := database.Migrate(migrationDB, logger); err != nil {
		_ = migrationDB.Close()
		return err
	}
	_ = migrationDB.Close()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	llmClient, err := llm.NewOpenAIClient(&llm.Config{
		BaseURL:        cfg.AI.LLMBaseURL,
		Model:          cfg.AI.LLMModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
		APIKey:         cfg.AI.APIKey,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	var blobs storage.BlobStore
	if cfg.Storage.Bucket != "" {
		gcs, err := storage.NewGCSStore(ctx, &storage.GCSConfig{
			Bucket:          cfg.Storage.Bucket,
			CredentialsJSON: cfg.Storage.CredentialsJSON,
			URLTTL:          cfg.Storage.UploadURLTTL(),
		})
		if err != nil {
			return fmt.Errorf("failed to create blob store: %w", err)
		}
		defer func() { _ = gcs.Close() }()
		blobs = gcs
	} else {
		logger.Warn("No storage bucket configured, using in-memory blob store")
		blobs = storage.NewMemoryStore()
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return fmt.Errorf("failed to create JWKS client: %w", err)
	}

	userRepo := repositories.NewUserRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	findingRepo := repositories.NewFindingRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	activityRepo := repositories.NewActivityRepository(db)

	index := search.NewIndex()
	searchService := services.NewSearchService(llmClient, index, reportRepo, projectRepo,
		cfg.Search.TopK, cfg.Search.AnswerContextSize, logger)

	reportService := services.NewReportService(reportRepo, projectRepo, findingRepo,
		activityRepo, searchService, logger)
	projectService := services.NewProjectService(projectRepo, userRepo, activityRepo, logger)
	userService := services.NewUserService(userRepo, activityRepo, logger)
	commentService := services.NewCommentService(commentRepo, reportRepo, projectRepo, activityRepo, logger)
	autofillService := services.NewAutofillService(llmClient, logger)
	attachmentService := services.NewAttachmentService(blobs, logger)

	// The index is rebuilt from the store on every boot; a failure here is
	// not fatal, search just starts empty until the next publish or restart.
	if err := searchService.Rebuild(ctx); err != nil {
		logger.Error("Failed to rebuild search index", zap.Error(err))
	}

	if cfg.Reaper.Enabled {
		reaper := services.NewReaper(reportRepo, blobs, cfg.Reaper.Interval(), cfg.Reaper.Grace(), logger)
		go reaper.Run(ctx)
	}

	guard := auth.NewGuard(jwksClient, userRepo, logger)
	authMW := auth.NewMiddleware(guard, logger)

	h := &handlers.Handlers{
		Health:   handlers.NewHealthHandler(db, cfg.Version, logger),
		Public:   handlers.NewPublicHandler(reportService, searchService, logger),
		Reports:  handlers.NewReportHandler(reportService, logger),
		Projects: handlers.NewProjectHandler(projectService, logger),
		Users:    handlers.NewUserHandler(userService, logger),
		Comments: handlers.NewCommentHandler(commentService, logger),
		Uploads:  handlers.NewUploadHandler(attachmentService, logger),
		Autofill: handlers.NewAutofillHandler(autofillService, logger),
		Webhook:  handlers.NewWebhookHandler(userService, cfg.Auth.WebhookSecret, logger),
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, h, authMW)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
