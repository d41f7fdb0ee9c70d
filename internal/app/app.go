package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/db"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"github.com/cozy-creator/house3d/internal/mq"
	"github.com/cozy-creator/house3d/internal/services/filestorage"
	"github.com/cozy-creator/house3d/internal/services/fileuploader"
	"github.com/cozy-creator/house3d/internal/services/generation"
	"github.com/cozy-creator/house3d/internal/services/projects"
	"github.com/cozy-creator/house3d/pkg/logger"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const uploadWorkers = 10

type App struct {
	mq             mq.MQ
	db             *bun.DB
	config         *config.Config
	ctx            context.Context
	cancelFunc     context.CancelFunc
	inputUploader  *fileuploader.Uploader
	outputUploader *fileuploader.Uploader
	generator      generation.Generator
	processor      *generation.Processor
	reconciler     *generation.Reconciler

	Logger *zap.Logger

	APIKeyRepository  repository.IAPIKeyRepository
	EventRepository   repository.IEventRepository
	ProjectRepository repository.IProjectRepository

	ProjectService *projects.Service
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

// WithDB uses an already opened database and builds the repositories on it.
func WithDB(bunDB *bun.DB) OptionFunc {
	return func(app *App) error {
		app.db = bunDB
		app.initRepositories()
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

func WithMQ() OptionFunc {
	return func(app *App) error {
		queue, err := mq.NewMQ(app.config, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create message queue: %w", err)
		}

		app.mq = queue
		return nil
	}
}

func WithDBInitialization() OptionFunc {
	return func(app *App) error {
		dbConn, err := db.NewConnection(app.ctx, app.config)
		if err != nil {
			return err
		}
		app.db = dbConn.GetDB()

		// Ensure tables exist
		if err := db.CreateTables(app.ctx, app.db); err != nil {
			return err
		}

		app.initRepositories()
		return nil
	}
}

// WithFileUploader sets up two uploaders: uploaded images always land on
// local disk where the generator can read them, generated models go to the
// configured filesystem.
func WithFileUploader() OptionFunc {
	return func(app *App) error {
		inputs, err := filestorage.NewLocalFileStorage(&config.Config{
			AssetsDir: filepath.Join(app.config.AssetsDir, "uploads"),
			TempDir:   app.config.TempDir,
		})
		if err != nil {
			return err
		}
		app.inputUploader = fileuploader.NewFileUploader(inputs, uploadWorkers)

		outputs, err := filestorage.NewFileStorage(app.config)
		if err != nil {
			return err
		}
		app.outputUploader = fileuploader.NewFileUploader(outputs, uploadWorkers)

		return nil
	}
}

// WithGenerator replaces the configured command generator.
func WithGenerator(generator generation.Generator) OptionFunc {
	return func(app *App) error {
		app.generator = generator
		return nil
	}
}

func WithProjectService() OptionFunc {
	return func(app *App) error {
		if app.ProjectRepository == nil || app.mq == nil {
			return fmt.Errorf("project service needs a database and a message queue")
		}

		dispatcher := generation.NewDispatcher(app.mq, app.GenerationTopic())
		app.ProjectService = projects.NewService(app.ProjectRepository, app.EventRepository, dispatcher, app.Logger)
		return nil
	}
}

// WithGeneration prepares the processor consuming the generation topic and
// the reconciler failing stale projects. Neither runs until started.
func WithGeneration() OptionFunc {
	return func(app *App) error {
		if app.ProjectRepository == nil || app.mq == nil {
			return fmt.Errorf("generation needs a database and a message queue")
		}

		genCfg := app.config.Generation
		if genCfg == nil {
			genCfg = &config.GenerationConfig{}
		}
		if app.generator == nil {
			app.generator = generation.NewCommandGenerator(genCfg)
		}

		opts := []generation.ProcessorOption{
			generation.WithLogger(app.Logger.Named("processor")),
			generation.WithTimeout(genCfg.Timeout),
			generation.WithWorkers(genCfg.Workers),
		}
		if genCfg.PublishArtifacts {
			if app.outputUploader == nil {
				return fmt.Errorf("publishing artifacts needs the file uploader")
			}
			opts = append(opts, generation.WithPublisher(app.outputUploader))
		}

		app.processor = generation.NewProcessor(app.mq, app.GenerationTopic(), app.ProjectRepository, app.generator, opts...)

		if app.config.Watchdog != nil {
			app.reconciler = generation.NewReconciler(
				app.ProjectRepository,
				app.config.Watchdog.Interval,
				app.config.Watchdog.MaxAge,
				app.Logger.Named("reconciler"),
			)
		}

		return nil
	}
}

func NewApp(config *config.Config, options ...OptionFunc) (*App, error) {
	logger, err := logger.InitLogger(config)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     config,
		Logger:     logger,
		cancelFunc: cancel,
	}

	// Apply all options
	for _, opt := range options {
		if err := opt(app); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (app *App) initRepositories() {
	app.APIKeyRepository = repository.NewAPIKeyRepository(app.db)
	app.EventRepository = repository.NewEventRepository(app.db)
	app.ProjectRepository = repository.NewProjectRepository(app.db)
}

// StartGeneration runs the processor and the reconciler in the background
// until the app is closed.
func (app *App) StartGeneration() error {
	if app.processor == nil {
		return fmt.Errorf("generation is not configured")
	}

	go func() {
		if err := app.processor.Run(app.ctx); err != nil {
			app.Logger.Error("generation processor stopped", zap.Error(err))
		}
	}()

	if app.reconciler != nil {
		go func() {
			if err := app.reconciler.Run(app.ctx); err != nil {
				app.Logger.Error("reconciler stopped", zap.Error(err))
			}
		}()
	}

	return nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.processor != nil {
		app.processor.Stop()
	}
	if app.inputUploader != nil {
		app.inputUploader.Stop()
	}
	if app.outputUploader != nil {
		app.outputUploader.Stop()
	}
	if app.mq != nil {
		if err := app.mq.Close(); err != nil {
			app.Logger.Warn("failed to close message queue", zap.Error(err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

func (app *App) GenerationTopic() string {
	if app.config.MQ != nil && app.config.MQ.Topic != "" {
		return app.config.MQ.Topic
	}

	return config.DefaultGenerateTopic
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) MQ() mq.MQ {
	return app.mq
}

func (app *App) DB() *bun.DB {
	return app.db
}

// Uploader stores uploaded input images.
func (app *App) Uploader() *fileuploader.Uploader {
	return app.inputUploader
}

func (app *App) Processor() *generation.Processor {
	return app.processor
}

func (app *App) Reconciler() *generation.Reconciler {
	return app.reconciler
}
