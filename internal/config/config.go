// Package config provides configuration management for pulse.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Sampling  SamplingConfig  `mapstructure:"sampling"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Disk      DiskConfig      `mapstructure:"disk"`
	Processes ProcessesConfig `mapstructure:"processes"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SamplingConfig controls the sampling cadence and history depth.
type SamplingConfig struct {
	Interval      time.Duration `mapstructure:"interval" validate:"gt=0"`
	FrameInterval time.Duration `mapstructure:"frame_interval" validate:"gt=0"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout" validate:"gt=0"`
	HistorySize   int           `mapstructure:"history_size" validate:"min=2,max=86400"`
}

// AlertsConfig controls alert evaluation.
type AlertsConfig struct {
	// EnforceDuration makes rules wait for their duration before firing
	EnforceDuration bool `mapstructure:"enforce_duration"`
}

// DiskConfig selects what the disk metrics describe.
type DiskConfig struct {
	Device    string `mapstructure:"device"`     // empty picks the busiest device
	SpacePath string `mapstructure:"space_path"` // mount point for space usage
}

// ProcessesConfig controls process table presentation.
type ProcessesConfig struct {
	TopLimit int `mapstructure:"top_limit" validate:"min=1,max=10000"`
}

// ServerConfig configures the read-only HTTP/WebSocket API.
type ServerConfig struct {
	Address           string        `mapstructure:"address" validate:"required,hostname_port"`
	AuthEnabled       bool          `mapstructure:"auth_enabled"`
	SecretKey         string        `mapstructure:"secret_key"`
	TokenTTL          time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	RateLimit         float64       `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst         int           `mapstructure:"rate_burst" validate:"min=1"`
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" validate:"gt=0"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"` // CORS and WebSocket origins; "*" allows any
	AllowedIPs        []string      `mapstructure:"allowed_ips" validate:"dive,ip"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}
