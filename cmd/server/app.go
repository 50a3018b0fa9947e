package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/jobs"
	"github.com/phrazzld/tasker-api/internal/platform/imaging"
	"github.com/phrazzld/tasker-api/internal/platform/mail"
	"github.com/phrazzld/tasker-api/internal/platform/metrics"
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/phrazzld/tasker-api/internal/platform/s3store"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	metrics *metrics.Metrics

	// Stores
	userStore   store.UserStore
	taskStore   store.TaskStore
	avatarStore store.AvatarStore

	// Services
	jwtService     auth.JWTService
	sessionService service.SessionService
	userService    service.UserService
	taskService    service.TaskService

	// Background mail delivery
	eventEmitter *events.InMemoryEventEmitter
	jobQueue     *jobs.Queue
	workerPool   *jobs.WorkerPool
}

// newApplication creates a new application instance with all dependencies initialized.
// The worker pool is started; cleanup stops it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	app.metrics.RegisterDBStats(db, "tasker")

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT session service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.avatarStore, err = newAvatarStore(ctx, cfg.Avatar, db, logger)
	if err != nil {
		return nil, err
	}

	app.sessionService, err = service.NewSessionService(app.jwtService, app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	app.setupMailPipeline(mail.New(cfg.Mail, logger))

	app.userService, err = service.NewUserService(service.UserServiceDeps{
		DB:         db,
		Users:      app.userStore,
		Tasks:      app.taskStore,
		Avatars:    app.avatarStore,
		Sessions:   app.sessionService,
		Passwords:  auth.NewBcryptVerifier(),
		Transcoder: imaging.NewTranscoder(cfg.Avatar.Size),
		Events:     app.eventEmitter,
	}, logger)
	if err != nil {
		app.stopWorkers(ctx)
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.taskStore, logger)
	if err != nil {
		app.stopWorkers(ctx)
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// newAvatarStore selects the avatar backend named by cfg.Storage.
func newAvatarStore(
	ctx context.Context,
	cfg config.AvatarConfig,
	db *sql.DB,
	logger *slog.Logger,
) (store.AvatarStore, error) {
	if cfg.Storage == "s3" {
		s, err := s3store.New(ctx, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 avatar store: %w", err)
		}
		logger.Info("avatar storage initialized", slog.String("backend", "s3"),
			slog.String("bucket", cfg.S3.Bucket))
		return s, nil
	}

	logger.Info("avatar storage initialized", slog.String("backend", "database"))
	return postgres.NewPostgresAvatarStore(db, logger), nil
}

// setupMailPipeline wires user events to mail jobs: the emitter hands events
// to the mail handler, which enqueues jobs for the worker pool.
func (app *application) setupMailPipeline(mailer mail.Mailer) {
	app.jobQueue = jobs.NewQueue(app.config.Jobs.QueueSize, app.logger)

	app.workerPool = jobs.NewWorkerPool(app.jobQueue, jobs.WorkerPoolConfig{
		WorkerCount: app.config.Jobs.WorkerCount,
	}, app.logger)
	app.workerPool.SetResultHandler(func(job jobs.Job, err error) {
		app.metrics.ObserveJob(job.Type(), err)
	})
	app.workerPool.Start()

	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger)
	app.eventEmitter.RegisterHandler(jobs.NewMailEventHandler(app.jobQueue, mailer, app.logger))
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

// stopWorkers closes the job queue and waits for buffered jobs to finish.
func (app *application) stopWorkers(ctx context.Context) {
	if app.jobQueue != nil {
		app.jobQueue.Close()
	}
	if app.workerPool != nil {
		if err := app.workerPool.Stop(ctx); err != nil {
			app.logger.Error("worker pool did not stop cleanly", slog.String("error", err.Error()))
		}
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	app.stopWorkers(ctx)

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
