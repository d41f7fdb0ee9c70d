package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var Cmd = &cobra.Command{
	Use:     "run",
	Short:   "Start the house3d API server",
	PreRunE: bindFlags,
	RunE:    runApp,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("port", 5000, "Port to run the server on")
	flags.String("host", "localhost", "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.Bool("disable-auth", false, "Disable authentication; every request acts as the default owner")
	flags.String("filesystem-type", "local", "Filesystem type for generated models: 'local' or 's3'")
	flags.String("public-dir", "", "Path where the built UI should be served from")
	flags.Bool("embedded-worker", true, "Run generation workers inside the server process")

	flags.String("db-driver", "sqlite", "Database driver: 'sqlite', 'libsql' or 'pg'")
	flags.String("db-dsn", "file:./data/house3d.db?cache=shared", "Database DSN (Connection URL or Path)")
	flags.String("pulsar-url", "", "URL of the pulsar broker. Example: pulsar://localhost:6650")

	flags.String("s3-access-key", "", "S3 access key")
	flags.String("s3-secret-key", "", "S3 secret key")
	flags.String("s3-region-name", "", "S3 region name")
	flags.String("s3-bucket-name", "", "S3 bucket name")
	flags.String("s3-folder", "", "S3 folder")
	flags.String("s3-public-url", "", "Public URL for S3 files")
	flags.String("s3-endpoint-url", "", "S3 endpoint URL")
}

// Flags are bound when the command runs so run and worker can share keys.
func bindFlags(cmd *cobra.Command, _ []string) error {
	return BindFlags(cmd.Flags(), map[string]string{
		"port":            "port",
		"host":            "host",
		"environment":     "environment",
		"disable_auth":    "disable-auth",
		"filesystem_type": "filesystem-type",
		"public_dir":      "public-dir",
		"embedded_worker": "embedded-worker",
		"db.driver":       "db-driver",
		"db.dsn":          "db-dsn",
		"pulsar.url":      "pulsar-url",
		"s3.access_key":   "s3-access-key",
		"s3.secret_key":   "s3-secret-key",
		"s3.region_name":  "s3-region-name",
		"s3.bucket_name":  "s3-bucket-name",
		"s3.folder":       "s3-folder",
		"s3.public_url":   "s3-public-url",
		"s3.endpoint_url": "s3-endpoint-url",
	})
}

// BindFlags binds each config key to its flag and reloads the config so
// explicitly set flags win over files and env.
func BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	return config.LoadConfig(true)
}

func runApp(_ *cobra.Command, _ []string) error {
	embeddedWorker := viper.GetBool("embedded_worker")

	options := []app.OptionFunc{
		app.WithDBInitialization(),
		app.WithMQ(),
		app.WithFileUploader(),
		app.WithProjectService(),
	}
	if embeddedWorker {
		options = append(options, app.WithGeneration())
	}

	app, err := app.NewApp(config.MustGetConfig(), options...)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.Logger
	defer logger.Sync()

	if embeddedWorker {
		if err := app.StartGeneration(); err != nil {
			return err
		}
	}

	server, err := server.NewServer(app.Config())
	if err != nil {
		return err
	}

	// Setup the server routes
	server.SetupRoutes(app)

	errc := make(chan error, 1)
	go func() {
		logger.Info("house3d server started", zap.String("addr", server.Addr()), zap.Bool("embedded_worker", embeddedWorker))
		errc <- server.Start()
	}()

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-signalc:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		return server.Stop(context.Background())
	}
}
