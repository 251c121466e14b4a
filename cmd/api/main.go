package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "award-review/docs" // This is for Swagger
	"award-review/internal/auth"
	"award-review/internal/config"
	"award-review/internal/database"
	"award-review/internal/handlers"
	"award-review/internal/logger"
	"award-review/internal/metrics"
	"award-review/internal/middleware"
	"award-review/internal/query"
	"award-review/internal/scheduler"
	"award-review/internal/service"
	"award-review/migrations"
)

// @title Award Review API
// @version 1.0
// @description Backend API for unit citation and appreciation submissions and their hierarchical review

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", logger.GetLevel(cfg.App.LogLevel),
	)

	// Initialize database
	startupCtx, cancelStartup := getContext(time.Minute)
	db, err := database.New(startupCtx, &cfg.Database)
	if err != nil {
		cancelStartup()
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations(startupCtx, migrations.Files); err != nil {
		cancelStartup()
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	cancelStartup()
	slog.Info("Database migrations completed")

	// Initialize services
	store := service.NewStore(db.DB)
	auditSvc := service.NewAuditService(store)
	submissionSvc := service.NewSubmissionService(store, auditSvc)
	applicationSvc := service.NewApplicationService(store, auditSvc)
	clarificationSvc := service.NewClarificationService(store, auditSvc)
	querySvc := service.NewQueryService(store, cfg.Workflow)
	parameterSvc := service.NewParameterService(store)
	draftSvc := service.NewDraftService(store)
	authService := auth.NewService(&cfg.JWT)
	if cfg.JWT.Secret == "" {
		slog.Warn("JWT_SECRET is empty, caller tokens are signed with an empty key")
	}

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(clarificationSvc, draftSvc, &cfg.Scheduler)
	if err := schedulerService.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Close()

	// Initialize handlers
	limits := query.Limits{DefaultLimit: cfg.Workflow.DefaultPageLimit, MaxLimit: cfg.Workflow.MaxPageLimit}
	applicationHandler := handlers.NewApplicationHandler(submissionSvc, applicationSvc, querySvc, limits)
	clarificationHandler := handlers.NewClarificationHandler(clarificationSvc, querySvc, limits)
	parameterHandler := handlers.NewParameterHandler(parameterSvc)
	draftHandler := handlers.NewDraftHandler(draftSvc)
	auditHandler := handlers.NewAuditHandler(applicationSvc)

	// Setup router
	mux := http.NewServeMux()
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMw.Authenticate(h))
	}

	// Application listings
	protected("GET /api/v1/applications/unit", applicationHandler.ListUnitApplications)
	protected("GET /api/v1/applications/subordinates", applicationHandler.ListSubordinates)
	protected("GET /api/v1/applications/hq", applicationHandler.ListHQ)
	protected("GET /api/v1/applications/scoreboard", applicationHandler.ListScoreboard)
	protected("GET /api/v1/applications/history", applicationHandler.ListHistory)
	protected("GET /api/v1/applications/all", applicationHandler.ListAll)

	// Workflow commands
	protected("POST /api/v1/applications/status/bulk", applicationHandler.BulkUpdateStatus)
	protected("POST /api/v1/applications/marks", applicationHandler.ApproveMarks)
	protected("POST /api/v1/applications/signatures", applicationHandler.AddSignature)
	protected("POST /api/v1/applications/comments", applicationHandler.AddComment)

	// Submissions
	protected("POST /api/v1/applications/{type}", applicationHandler.CreateApplication)
	protected("PUT /api/v1/applications/{type}/{id}", applicationHandler.UpdateApplication)
	protected("GET /api/v1/applications/{type}/{id}", applicationHandler.GetApplication)
	protected("PATCH /api/v1/applications/{type}/{id}/status", applicationHandler.UpdateStatus)
	protected("GET /api/v1/applications/{type}/{id}/audit", auditHandler.ListApplicationAudit)

	// Clarifications
	protected("POST /api/v1/clarifications", clarificationHandler.RaiseClarification)
	protected("PATCH /api/v1/clarifications/{id}", clarificationHandler.UpdateClarification)
	protected("GET /api/v1/clarifications/unit", clarificationHandler.ListUnitClarifications)

	// Drafts
	protected("PUT /api/v1/drafts/{type}", draftHandler.SaveDraft)
	protected("GET /api/v1/drafts/{type}", draftHandler.GetDraft)
	protected("DELETE /api/v1/drafts/{type}", draftHandler.DeleteDraft)

	// Parameter catalog
	protected("GET /api/v1/parameters", parameterHandler.ListParameters)
	protected("POST /api/v1/parameters", parameterHandler.CreateParameter)
	protected("GET /api/v1/parameters/{id}", parameterHandler.GetParameter)
	protected("PUT /api/v1/parameters/{id}", parameterHandler.UpdateParameter)
	protected("DELETE /api/v1/parameters/{id}", parameterHandler.DeleteParameter)

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler(db, cfg.App.Version))

	// Prometheus metrics
	mux.Handle("GET /metrics", metrics.Handler())

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		metrics.InstrumentHandler(
			middleware.SecurityHeaders(
				corsMw.Handler(
					rateLimiter.Limit(mux),
				),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := getContext(30 * time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	schedulerService.Stop(ctx)

	slog.Info("Server stopped")
}
