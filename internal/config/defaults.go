package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const DefaultHome = "~/.house3d"

var (
	DefaultGenerateTopic = "house3d/generations/requests"
	DefaultSubscription  = "house3d-generation-workers"
)

var (
	ErrHomeNotSet       = errors.New("house3d home directory is not set")
	ErrHomeExpandFailed = errors.New("failed to expand house3d home directory")
)

func SetDefaults() {
	viper.SetDefault("port", 5000)
	viper.SetDefault("host", "localhost")
	viper.SetDefault("environment", "dev")
	viper.SetDefault("filesystem_type", FilesystemLocal)
	viper.SetDefault("default_owner", "admin")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})

	// 100 requests per 15 minutes per client
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", 15*time.Minute)

	viper.SetDefault("db.driver", DBDriverSQLite)
	viper.SetDefault("db.dsn", "file:./data/house3d.db?cache=shared")

	viper.SetDefault("mq.topic", DefaultGenerateTopic)
	viper.SetDefault("mq.inmemory_size", 100)
	viper.SetDefault("pulsar.subscription_name", DefaultSubscription)

	viper.SetDefault("generation.command", "python3")
	viper.SetDefault("generation.args", []string{"python/generate_model.py"})
	viper.SetDefault("generation.timeout", 10*time.Minute)
	viper.SetDefault("generation.workers", 4)

	viper.SetDefault("watchdog.interval", time.Minute)
	viper.SetDefault("watchdog.max_age", 30*time.Minute)
}
