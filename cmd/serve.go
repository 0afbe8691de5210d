package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pulse/internal/config"
	"pulse/internal/controllers"
	"pulse/internal/routes"
	"pulse/internal/services"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sample continuously and serve the API",
	Long: `Start the sampling loop and the read-only HTTP/WebSocket API.

Endpoints:
  GET  /api/snapshot            full snapshot with histories
  GET  /api/metrics/{cpu,memory,gpu,disk,network}
  GET  /api/processes?sort=cpu&order=desc&limit=20
  GET  /api/history?metric=cpu&duration=5m
  GET  /api/history/all?duration=5m
  GET  /api/alerts
  GET  /api/dashboard
  GET  /ws                      snapshot stream
  POST /auth/token              when server.auth_enabled is set`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newScheduler wires the host provider and alert engine into a scheduler
// and reads static host details
func newScheduler(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *services.Scheduler {
	provider := services.NewGopsutilProvider(services.GopsutilOptions{
		DiskDevice: cfg.Disk.Device,
		SpacePath:  cfg.Disk.SpacePath,
	}, logger)
	alerts := services.NewAlertEngine(cfg.Alerts.EnforceDuration, logger)

	scheduler := services.NewScheduler(provider, alerts, services.SchedulerOptions{
		Interval:      cfg.Sampling.Interval,
		FrameInterval: cfg.Sampling.FrameInterval,
		PollTimeout:   cfg.Sampling.PollTimeout,
		HistorySize:   cfg.Sampling.HistorySize,
	}, logger)
	scheduler.Initialize(ctx)
	return scheduler
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := newScheduler(ctx, cfg, logger)
	hub := services.NewWebSocketHub(scheduler, cfg.Server.BroadcastInterval, logger)

	var auth *services.AuthService
	if cfg.Server.AuthEnabled {
		auth, err = services.NewAuthService(cfg.Server.SecretKey, cfg.Server.TokenTTL, services.DefaultKeyFile(), logger)
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	ctl := controllers.New(scheduler, hub, auth, controllers.Options{
		TopLimit:       cfg.Processes.TopLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           routes.NewRouter(cfg.Server, ctl, auth, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address).
			Bool("auth", auth != nil).
			Str("version", Version).
			Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info().Msg("stopped")
	return err
}
