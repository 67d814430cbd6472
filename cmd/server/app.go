package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/quizforge/qbank-api/internal/config"
	"github.com/quizforge/qbank-api/internal/events"
	"github.com/quizforge/qbank-api/internal/platform/gemini"
	"github.com/quizforge/qbank-api/internal/platform/postgres"
	"github.com/quizforge/qbank-api/internal/progress"
	"github.com/quizforge/qbank-api/internal/reader"
	"github.com/quizforge/qbank-api/internal/service"
	"github.com/quizforge/qbank-api/internal/store"
	"github.com/quizforge/qbank-api/internal/task"
)

// sweepInterval is how often the progress broker reclaims idle task
// streams.
const sweepInterval = time.Minute

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	bankStore store.BankStore

	broker       *progress.Broker
	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner

	bankService service.BankService

	// stopSweeper cancels the broker's background sweeper goroutine.
	stopSweeper context.CancelFunc
}

// newApplication creates a new application instance with all
// dependencies initialized and the background machinery running.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.bankStore = postgres.NewPostgresBankStore(db, logger)

	// Recovery pass: banks left pending or processing by an unclean
	// shutdown have no live task and would otherwise stay stuck forever.
	stuckAge := time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute
	recovered, err := app.bankStore.FailStale(ctx, stuckAge)
	if err != nil {
		return nil, fmt.Errorf("failed to fail stale banks: %w", err)
	}
	if recovered > 0 {
		logger.Warn("marked stale question banks as failed",
			"count", recovered, "older_than", stuckAge)
	}

	app.broker = progress.NewBroker(logger, progress.DefaultQueueSize)
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	app.stopSweeper = stopSweeper
	app.broker.StartSweeper(sweeperCtx, sweepInterval, progress.DefaultIdleThreshold)

	generator, err := gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "llm_generator"),
		cfg.LLM,
	)
	if err != nil {
		stopSweeper()
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	// One shared pacer keeps the aggregate model call rate across all
	// concurrent jobs inside the configured budget.
	pacer := rate.NewLimiter(
		rate.Every(time.Minute/time.Duration(cfg.LLM.RequestsPerMinute)), 1)

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		stopSweeper()
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	taskFactory := task.NewBankGenerationTaskFactory(
		reader.NewPlainTextReader(),
		cfg.Segment,
		generator,
		app.bankStore,
		app.broker,
		pacer,
		cfg.LLM.QuestionsPerChunk,
		logger,
	)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(
		task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))
	app.eventEmitter = emitter

	app.bankService, err = service.NewBankService(
		db,
		app.bankStore,
		app.broker,
		app.eventEmitter,
		logger,
		cfg.LLM.QuestionsPerChunk,
	)
	if err != nil {
		app.taskRunner.Stop()
		stopSweeper()
		return nil, fmt.Errorf("failed to create bank service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
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

	if app.stopSweeper != nil {
		app.stopSweeper()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
