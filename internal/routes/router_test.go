package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/config"
	"pulse/internal/controllers"
	"pulse/internal/models"
	"pulse/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticSource struct{}

func (staticSource) Snapshot() *models.SystemSnapshot { return models.NewSystemSnapshot(5) }

func serverConfig() config.ServerConfig {
	return config.Default().Server
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_Open(t *testing.T) {
	ctl := controllers.New(staticSource{}, nil, nil, controllers.Options{}, zerolog.Nop())
	r := NewRouter(serverConfig(), ctl, nil, zerolog.Nop())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	for _, path := range []string{
		"/api/snapshot", "/api/dashboard", "/api/alerts",
		"/api/metrics/cpu", "/api/metrics/gpu", "/api/history", "/api/history/all",
		"/api/processes", "/api/processes/status",
	} {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, path, nil)).Code, path)
	}
}

func TestNewRouter_RequiresToken(t *testing.T) {
	auth, err := services.NewAuthService("0123456789abcdef0123456789abcdef", time.Hour, "", zerolog.Nop())
	require.NoError(t, err)
	ctl := controllers.New(staticSource{}, nil, auth, controllers.Options{}, zerolog.Nop())
	r := NewRouter(serverConfig(), ctl, auth, zerolog.Nop())

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil)).Code)

	token, _, err := auth.GenerateToken("tester")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestNewRouter_TokenMintingIsLocal(t *testing.T) {
	auth, err := services.NewAuthService("0123456789abcdef0123456789abcdef", time.Hour, "", zerolog.Nop())
	require.NoError(t, err)
	ctl := controllers.New(staticSource{}, nil, auth, controllers.Options{}, zerolog.Nop())

	listed := serverConfig()
	listed.AllowedIPs = []string{"192.0.2.50"}

	tests := []struct {
		name      string
		cfg       config.ServerConfig
		remote    string
		forwarded string
		want      int
	}{
		{"loopback", serverConfig(), "127.0.0.1:5555", "", http.StatusOK},
		{"ipv6 loopback", serverConfig(), "[::1]:5555", "", http.StatusOK},
		{"remote", serverConfig(), "203.0.113.7:5555", "", http.StatusForbidden},
		{"remote posing as loopback", serverConfig(), "203.0.113.7:5555", "127.0.0.1", http.StatusForbidden},
		{"allow-listed", listed, "192.0.2.50:5555", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.cfg, ctl, auth, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/auth/token?client_name=visitor", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			w := serve(r, req)
			require.Equal(t, tt.want, w.Code, w.Body.String())

			if tt.want != http.StatusOK {
				// nothing minted, so the API stays closed
				assert.NotContains(t, w.Body.String(), "token\":")
				api := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
				api.RemoteAddr = tt.remote
				assert.Equal(t, http.StatusUnauthorized, serve(r, api).Code)
			}
		})
	}
}
