package cmd

import (
	"fmt"
	"os"
	"strings"

	// Subcommands
	apiKey "github.com/cozy-creator/house3d/cmd/house3d/apikey"
	db "github.com/cozy-creator/house3d/cmd/house3d/db"
	run "github.com/cozy-creator/house3d/cmd/house3d/run"
	worker "github.com/cozy-creator/house3d/cmd/house3d/worker"
	"github.com/cozy-creator/house3d/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const house3dPrefix = "HOUSE3D"

var Cmd = &cobra.Command{
	Use:   "house3d",
	Short: "house3d CLI",
	Long:  "Turns batches of house photos and floor plans into 3D models, asynchronously",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set global viper options
		viper.SetEnvPrefix(house3dPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`, // convert hyphens to underscores
			`.`, `_`, // convert dots to underscores
		))
		viper.AutomaticEnv()
		bindEnvs()

		// Load config and env files
		return config.LoadEnvAndConfigFiles()
	},
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func GetRootCmd() *cobra.Command {
	return Cmd
}

func init() {
	// Subcommands add their own PersistentPreRunE on top of the root one
	cobra.EnableTraverseRunHooks = true

	pflags := Cmd.PersistentFlags()

	pflags.String("house3d-home", "", "Path to the house3d home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	// Bind flags to viper
	viper.BindPFlag("house3d_home", pflags.Lookup("house3d-home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	// Add subcommands
	Cmd.AddCommand(run.Cmd, worker.Cmd, db.Cmd, apiKey.Cmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}

// Keys without a default must be bound explicitly to be read from the
// environment. Example: HOUSE3D_S3_ACCESS_KEY
func bindEnvs() {
	viper.BindEnv("disable_auth")
	viper.BindEnv("public_dir")
	viper.BindEnv("assets_dir")
	viper.BindEnv("temp_dir")

	viper.BindEnv("pulsar.url")
	viper.BindEnv("generation.output_dir")
	viper.BindEnv("generation.publish_artifacts")

	viper.BindEnv("s3.access_key")
	viper.BindEnv("s3.secret_key")
	viper.BindEnv("s3.region_name")
	viper.BindEnv("s3.bucket_name")
	viper.BindEnv("s3.folder")
	viper.BindEnv("s3.public_url")
	viper.BindEnv("s3.endpoint_url")
}
