// Package controllers exposes the published snapshot over HTTP. Handlers
// only read; nothing here mutates sampling state.
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pulse/internal/middleware"
	"pulse/internal/services"
)

// Options tunes controller defaults
type Options struct {
	TopLimit       int      // default process listing size
	AllowedOrigins []string // browser origins allowed to open /ws
}

// Controller serves the read-only API
type Controller struct {
	source   services.SnapshotSource
	hub      *services.WebSocketHub
	auth     *services.AuthService // nil when authentication is disabled
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// New creates a controller. hub and auth may be nil.
func New(source services.SnapshotSource, hub *services.WebSocketHub, auth *services.AuthService, opts Options, logger zerolog.Logger) *Controller {
	if opts.TopLimit <= 0 {
		opts.TopLimit = 20
	}
	ctl := &Controller{
		source: source,
		hub:    hub,
		auth:   auth,
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
	}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ctl.checkOrigin,
	}
	return ctl
}

// checkOrigin accepts non-browser clients, same-host pages and the
// configured origins
func (ctl *Controller) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if middleware.OriginAllowed(origin, []string{r.Host}) {
		return true
	}
	return middleware.OriginAllowed(origin, ctl.opts.AllowedOrigins)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
