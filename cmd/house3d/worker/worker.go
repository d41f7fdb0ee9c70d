package worker

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cozy-creator/house3d/cmd/house3d/run"
	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/mq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:   "worker",
	Short: "Run generation workers without the API server",
	Long:  "Consumes generation requests from the message queue. Pair it with `house3d run --embedded-worker=false` and a shared pulsar broker.",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return run.BindFlags(cmd.Flags(), map[string]string{
			"environment":           "environment",
			"filesystem_type":       "filesystem-type",
			"db.driver":             "db-driver",
			"db.dsn":                "db-dsn",
			"pulsar.url":            "pulsar-url",
			"generation.workers":    "workers",
			"generation.command":    "command",
			"generation.output_dir": "output-dir",
		})
	},
	RunE: runWorker,
}

func init() {
	flags := Cmd.Flags()

	flags.String("environment", "dev", "Environment configuration")
	flags.String("filesystem-type", "local", "Filesystem type for generated models: 'local' or 's3'")
	flags.String("db-driver", "sqlite", "Database driver: 'sqlite', 'libsql' or 'pg'")
	flags.String("db-dsn", "file:./data/house3d.db?cache=shared", "Database DSN (Connection URL or Path)")
	flags.String("pulsar-url", "", "URL of the pulsar broker")
	flags.Int("workers", 4, "Number of concurrent generations")
	flags.String("command", "python3", "Generation command")
	flags.String("output-dir", "", "Directory generated models are written to")
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg := config.MustGetConfig()

	app, err := app.NewApp(cfg,
		app.WithDBInitialization(),
		app.WithMQ(),
		app.WithFileUploader(),
		app.WithGeneration(),
	)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.Logger
	defer logger.Sync()

	if mq.Type(app.MQ()) == mq.MQTypeInMemory {
		logger.Warn("no pulsar url configured, the worker only sees requests published by this process")
	}

	if err := app.StartGeneration(); err != nil {
		return err
	}
	logger.Info("house3d worker started",
		zap.String("topic", app.GenerationTopic()),
		zap.Int("workers", cfg.Generation.Workers),
	)

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	sig := <-signalc
	logger.Info("shutting down, waiting for running generations", zap.String("signal", sig.String()))
	return nil
}
