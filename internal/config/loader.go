package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pulse/internal/models"
)

// Load reads configuration from an optional YAML file and environment
// variables. Environment variables take precedence over file values.
// Environment variable format: PULSE_<SECTION>_<KEY> (e.g., PULSE_SAMPLING_INTERVAL)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Sampling defaults
	v.SetDefault("sampling.interval", time.Second)
	v.SetDefault("sampling.frame_interval", 100*time.Millisecond)
	v.SetDefault("sampling.poll_timeout", 800*time.Millisecond)
	v.SetDefault("sampling.history_size", models.DefaultHistorySize)

	v.SetDefault("alerts.enforce_duration", false)

	v.SetDefault("disk.device", "")
	v.SetDefault("disk.space_path", "/")

	v.SetDefault("processes.top_limit", 20)

	// Server defaults
	v.SetDefault("server.address", "localhost:8080")
	v.SetDefault("server.auth_enabled", false)
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.token_ttl", 90*24*time.Hour)
	v.SetDefault("server.rate_limit", 100.0)
	v.SetDefault("server.rate_burst", 200)
	v.SetDefault("server.broadcast_interval", time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allowed_ips", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
