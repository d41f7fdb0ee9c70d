package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cozy-creator/house3d/internal/templates"
	"github.com/cozy-creator/house3d/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const (
	DBDriverPG     = "pg"
	DBDriverSQLite = "sqlite"
	DBDriverLibSQL = "libsql"
)

const envPrefix = "HOUSE3D"

type Config struct {
	Port         int               `mapstructure:"port"`
	Host         string            `mapstructure:"host"`
	Home         string            `mapstructure:"house3d_home"`
	Environment  string            `mapstructure:"environment"`
	AssetsDir    string            `mapstructure:"assets_dir"`
	TempDir      string            `mapstructure:"temp_dir"`
	PublicDir    string            `mapstructure:"public_dir"`
	Filesystem   string            `mapstructure:"filesystem_type"`
	DisableAuth  bool              `mapstructure:"disable_auth"`
	DefaultOwner string            `mapstructure:"default_owner"`
	CORSOrigins  []string          `mapstructure:"cors_origins"`
	RateLimit    *RateLimitConfig  `mapstructure:"rate_limit"`
	DB           *DBConfig         `mapstructure:"db"`
	MQ           *MQConfig         `mapstructure:"mq"`
	Pulsar       *PulsarConfig     `mapstructure:"pulsar"`
	S3           *S3Config         `mapstructure:"s3"`
	Generation   *GenerationConfig `mapstructure:"generation"`
	Watchdog     *WatchdogConfig   `mapstructure:"watchdog"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type MQConfig struct {
	Topic        string `mapstructure:"topic"`
	InMemorySize int    `mapstructure:"inmemory_size"`
}

type PulsarConfig struct {
	URL              string `mapstructure:"url"`
	SubscriptionName string `mapstructure:"subscription_name"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	PublicUrl   string `mapstructure:"public_url"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

type GenerationConfig struct {
	Command          string        `mapstructure:"command"`
	Args             []string      `mapstructure:"args"`
	OutputDir        string        `mapstructure:"output_dir"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Workers          int           `mapstructure:"workers"`
	PublishArtifacts bool          `mapstructure:"publish_artifacts"`
}

type WatchdogConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the home directory, writes the default
// .env and config.yaml on first run, and loads both into viper.
func LoadEnvAndConfigFiles() error {
	home, err := getHome()
	if err != nil {
		return err
	}

	if err := createHomeDirs(home); err != nil {
		return err
	}

	viper.Set("house3d_home", home)
	if viper.GetString("assets_dir") == "" {
		viper.Set("assets_dir", filepath.Join(home, "assets"))
	}
	if viper.GetString("temp_dir") == "" {
		viper.Set("temp_dir", filepath.Join(home, "temp"))
	}

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(home, ".env")
		if err := writeIfMissing(envFile, templates.WriteEnv); err != nil {
			return fmt.Errorf("failed to create .env file: %w", err)
		}
	}

	configFile := viper.GetString("config_file")
	if configFile == "" {
		configFile = filepath.Join(home, "config.yaml")
		if err := writeIfMissing(configFile, templates.WriteConfig); err != nil {
			return fmt.Errorf("failed to create config.yaml file: %w", err)
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	viper.SetConfigFile(configFile)
	return LoadConfig(true)
}

// InitConfig loads configuration from env and flags only, without touching
// the home directory. Used by tests and by commands that only need defaults.
func InitConfig() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`, `-`, `_`))
	viper.AutomaticEnv()

	return LoadConfig(true)
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return fmt.Errorf("config already loaded")
	}

	SetDefaults()

	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	config = cfg
	return nil
}

func (c *Config) Validate() error {
	if c.DB == nil || c.Generation == nil || c.Watchdog == nil {
		return fmt.Errorf("db, generation and watchdog settings are required")
	}

	if c.Watchdog.Interval <= 0 {
		return fmt.Errorf("watchdog.interval must be positive")
	}

	if c.Watchdog.MaxAge <= c.Generation.Timeout {
		return fmt.Errorf("watchdog.max_age (%s) must exceed generation.timeout (%s)", c.Watchdog.MaxAge, c.Generation.Timeout)
	}

	switch strings.ToLower(c.DB.Driver) {
	case DBDriverPG, DBDriverSQLite, DBDriverLibSQL:
	default:
		return fmt.Errorf("invalid database driver: %s", c.DB.Driver)
	}

	if c.Generation.Workers <= 0 {
		return fmt.Errorf("generation.workers must be positive")
	}

	return nil
}

func GetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func MustGetConfig() *Config {
	return GetConfig()
}

func IsLoaded() bool {
	return config != nil
}

// Returns the home directory path.
// It attempts to retrieve the home directory from the following sources in order:
// 1. The `house3d_home` flag from viper.
// 2. The `HOUSE3D_HOME` environment variable.
// 3. The default home directory.
func getHome() (string, error) {
	home := viper.GetString("house3d_home")
	if home == "" {
		home = os.Getenv("HOUSE3D_HOME")
		if home == "" {
			home = DefaultHome
		}
	}

	home, err := pathutil.ExpandPath(home)
	if err != nil {
		return "", ErrHomeExpandFailed
	}

	return home, nil
}

func createHomeDirs(home string) error {
	subdirs := []string{"assets", "temp", "models"}
	if err := os.MkdirAll(home, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	for _, subdir := range subdirs {
		dir := filepath.Join(home, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}

func writeIfMissing(path string, write func(string) error) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return err
		}

		return write(path)
	}

	return nil
}
