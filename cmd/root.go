// Package cmd provides the pulse command line.
package cmd

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"pulse/internal/config"
)

// Version information, injected at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Global flags
var (
	cfgFile  string // Config file path, empty for defaults and environment only
	logLevel string // Overrides logging.level when set
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Local resource monitor",
	Long: `pulse samples CPU, memory, GPU, disk, network and process statistics
at a fixed cadence, keeps a rolling history of each metric and raises
threshold alerts. The latest snapshot is served read-only over HTTP and
WebSocket.

Configuration is read from an optional YAML file and PULSE_* environment
variables, for example PULSE_SAMPLING_INTERVAL=2s.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig loads the configuration and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// GetVersionInfo returns formatted version information.
func GetVersionInfo() string {
	return Version + "\n" +
		"Build Time: " + BuildTime + "\n" +
		"Git Commit: " + GitCommit + "\n" +
		"Go Version: " + runtime.Version() + "\n" +
		"OS/Arch: " + runtime.GOOS + "/" + runtime.GOARCH
}
