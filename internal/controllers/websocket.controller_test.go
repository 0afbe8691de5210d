package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/internal/services"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef"

func newAuthController(t *testing.T) *Controller {
	t.Helper()
	auth, err := services.NewAuthService(testSecret, time.Hour, "", zerolog.Nop())
	require.NoError(t, err)
	return New(staticSource{snapshot: fixtureSnapshot()}, nil, auth, Options{}, zerolog.Nop())
}

func TestHandleGetToken(t *testing.T) {
	ctl := newAuthController(t)
	r := gin.New()
	r.POST("/auth/token", ctl.HandleGetToken)
	r.GET("/auth/status", ctl.HandleTokenStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token?client_name=laptop", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"client":"laptop"`)
	assert.Contains(t, w.Body.String(), `"url":"ws://example.com/ws?token=`)

	token, _, err := ctl.auth.GenerateToken("laptop")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status?token=not.a.token", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetToken_InvalidName(t *testing.T) {
	ctl := newAuthController(t)
	r := gin.New()
	r.POST("/auth/token", ctl.HandleGetToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token?client_name=bad%20name", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetToken_AuthDisabled(t *testing.T) {
	ctl := New(staticSource{snapshot: fixtureSnapshot()}, nil, nil, Options{}, zerolog.Nop())
	r := gin.New()
	r.POST("/auth/token", ctl.HandleGetToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckOrigin(t *testing.T) {
	ctl := New(staticSource{snapshot: fixtureSnapshot()}, nil, nil,
		Options{AllowedOrigins: []string{"https://dash.example"}}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "http://monitor.local:8080/ws", nil)
	assert.True(t, ctl.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "http://monitor.local:8080")
	assert.True(t, ctl.checkOrigin(req), "same host")

	req.Header.Set("Origin", "https://dash.example")
	assert.True(t, ctl.checkOrigin(req), "configured")

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, ctl.checkOrigin(req))
}

func TestHandleWebSocket(t *testing.T) {
	source := staticSource{snapshot: fixtureSnapshot()}
	hub := services.NewWebSocketHub(source, 20*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ctl := New(source, hub, nil, Options{}, zerolog.Nop())
	r := gin.New()
	r.GET("/ws", ctl.HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: "ping"}))

	seen := map[string]bool{}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for !(seen["pong"] && seen["snapshot"]) {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		typ, _ := msg["type"].(string)
		seen[typ] = true
		if typ == "snapshot" {
			data := msg["data"].(map[string]any)
			assert.True(t, strings.HasPrefix(data["system_name"].(string), "bench"))
		}
	}

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(services.WebSocketMessage{Type: "unsubscribe"}))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHandleWebSocket_StreamingDisabled(t *testing.T) {
	ctl := New(staticSource{snapshot: fixtureSnapshot()}, nil, nil, Options{}, zerolog.Nop())
	r := gin.New()
	r.GET("/ws", ctl.HandleWebSocket)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
