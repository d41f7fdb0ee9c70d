package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if err := LoadConfig(true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	cfg := GetConfig()
	if cfg.Port != 5000 || cfg.DefaultOwner != "admin" {
		t.Fatalf("unexpected defaults: port=%d owner=%s", cfg.Port, cfg.DefaultOwner)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != 15*time.Minute {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.Generation.Timeout != 10*time.Minute || cfg.Watchdog.MaxAge != 30*time.Minute {
		t.Fatalf("unexpected timeouts: %s / %s", cfg.Generation.Timeout, cfg.Watchdog.MaxAge)
	}
	if cfg.MQ.Topic != DefaultGenerateTopic {
		t.Fatalf("unexpected topic %s", cfg.MQ.Topic)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOUSE3D_PORT", "8080")
	t.Setenv("HOUSE3D_GENERATION_TIMEOUT", "2m")

	if err := InitConfig(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := GetConfig()
	if cfg.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.Generation.Timeout != 2*time.Minute {
		t.Fatalf("expected a 2m timeout, got %s", cfg.Generation.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:         &DBConfig{Driver: DBDriverSQLite},
			Generation: &GenerationConfig{Timeout: 10 * time.Minute, Workers: 1},
			Watchdog:   &WatchdogConfig{Interval: time.Minute, MaxAge: 30 * time.Minute},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected a valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"watchdog shorter than timeout", func(c *Config) { c.Watchdog.MaxAge = 5 * time.Minute }},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mongodb" }},
		{"no workers", func(c *Config) { c.Generation.Workers = 0 }},
		{"no interval", func(c *Config) { c.Watchdog.Interval = 0 }},
		{"missing section", func(c *Config) { c.Watchdog = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
