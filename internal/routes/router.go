// Package routes assembles the HTTP surface.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pulse/internal/config"
	"pulse/internal/controllers"
	"pulse/internal/middleware"
	"pulse/internal/services"
)

// NewRouter builds the engine with the security middleware chain. auth is
// nil when token authentication is disabled.
func NewRouter(cfg config.ServerConfig, ctl *controllers.Controller, auth *services.AuthService, logger zerolog.Logger) *gin.Engine {
	log := logger.With().Str("component", "http").Logger()

	r := gin.New()
	// ClientIP must come from the socket; forwarded headers would let a
	// remote caller pose as loopback
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Error().Err(err).Msg("disable trusted proxies")
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(cfg.AllowedIPs), log),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst), log),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var guard gin.HandlerFunc
	if auth != nil {
		guard = middleware.RequireToken(auth, log)
	}

	api := r.Group("/api")
	if guard != nil {
		api.Use(guard)
	}
	RegisterMonitorRoutes(api, ctl)
	RegisterProcessRoutes(api, ctl)

	// tokens are minted only for local or allow-listed callers, five a
	// minute per client with a burst of ten
	issue := []gin.HandlerFunc{
		middleware.IPWhitelistMiddleware(middleware.NewLocalWhitelist(cfg.AllowedIPs), log),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(rate.Every(12*time.Second), 10), log),
	}
	RegisterAuthRoutes(r, ctl, issue, guard)

	return r
}
