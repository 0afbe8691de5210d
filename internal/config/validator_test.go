package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newValidConfig creates a valid configuration for testing.
func newValidConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval:      time.Second,
			FrameInterval: 100 * time.Millisecond,
			PollTimeout:   800 * time.Millisecond,
			HistorySize:   300,
		},
		Disk:      DiskConfig{SpacePath: "/"},
		Processes: ProcessesConfig{TopLimit: 20},
		Server: ServerConfig{
			Address:           "localhost:8080",
			TokenTTL:          time.Hour,
			RateLimit:         100,
			RateBurst:         200,
			BroadcastInterval: time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(newValidConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero interval", func(c *Config) { c.Sampling.Interval = 0 }, "sampling.interval"},
		{"history too small", func(c *Config) { c.Sampling.HistorySize = 1 }, "sampling.history_size"},
		{"frame slower than sampling", func(c *Config) { c.Sampling.FrameInterval = 2 * time.Second }, "sampling.frame_interval"},
		{"poll timeout too long", func(c *Config) { c.Sampling.PollTimeout = 5 * time.Second }, "sampling.poll_timeout"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"missing address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"zero top limit", func(c *Config) { c.Processes.TopLimit = 0 }, "processes.top_limit"},
		{"bad allowed ip", func(c *Config) { c.Server.AllowedIPs = []string{"10.0.0.1", "nope"} }, "server.allowed_ips[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.True(t, verrs.Has(tt.field), "expected error on %s, got %v", tt.field, err)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "sampling.interval", Message: "value must be greater than 0"},
		{Field: "logging.level", Message: "value must be one of: trace debug info warn error"},
	}

	msg := errs.Error()
	assert.True(t, strings.HasPrefix(msg, "config validation failed:"))
	assert.Contains(t, msg, "sampling.interval")
	assert.Contains(t, msg, "logging.level")
	assert.Empty(t, ValidationErrors{}.Error())
}
