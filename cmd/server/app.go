package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pathforge/pathforge-api/internal/config"
	"github.com/pathforge/pathforge-api/internal/generation"
	"github.com/pathforge/pathforge-api/internal/platform/gemini"
	"github.com/pathforge/pathforge-api/internal/platform/postgres"
	"github.com/pathforge/pathforge-api/internal/service"
	"github.com/pathforge/pathforge-api/internal/store"
	"github.com/pathforge/pathforge-api/internal/task"
	"github.com/pathforge/pathforge-api/internal/validation"
	"github.com/pathforge/pathforge-api/internal/workflow"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jobStore  store.JobStore
	pathStore store.PathStore

	orchestrator *workflow.Orchestrator
	validator    *validation.Validator
	taskRunner   *task.Runner

	pathService service.PathService
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores
	app.jobStore = postgres.NewPostgresJobStore(db, logger)
	app.pathStore = postgres.NewPostgresPathStore(db, logger)

	// LLM client and the four reasoning stages
	llm, err := gemini.NewClient(ctx, logger.With("component", "llm_client"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	logger.Info("LLM client initialized", "model", cfg.LLM.ModelName)

	stages := []generation.Stage{
		gemini.NewResearcher(llm, logger),
		gemini.NewDesigner(llm, logger),
		gemini.NewReviewer(llm, logger),
		gemini.NewGatekeeper(llm, cfg.Workflow.MaxIterations, logger),
	}

	// Workflow orchestrator
	app.orchestrator, err = workflow.New(stages, workflow.Config{
		MaxIterations:    cfg.Workflow.MaxIterations,
		QualityThreshold: cfg.Workflow.QualityThreshold,
		StageMaxRetries:  uint64(cfg.LLM.MaxRetries),
		RetryBaseDelay:   time.Duration(cfg.LLM.RetryDelaySeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// Reference validator
	app.validator = validation.NewValidator(cfg.Validation, validation.DefaultPolicy(), logger)

	// Worker pool for generation runs
	app.taskRunner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Workflow.WorkerCount,
		QueueSize:   cfg.Workflow.WorkerCount * 4,
	}, logger)
	app.taskRunner.Start()

	// Path service
	app.pathService, err = service.NewPathService(
		app.jobStore,
		app.pathStore,
		app.orchestrator,
		app.validator,
		app.taskRunner,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create path service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
