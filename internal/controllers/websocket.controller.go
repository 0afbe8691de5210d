package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pulse/internal/middleware"
	"pulse/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// HandleWebSocket upgrades the request and streams snapshots to the client.
// Token checks happen in middleware when authentication is enabled.
func (ctl *Controller) HandleWebSocket(c *gin.Context) {
	if ctl.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming disabled"})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.logger.Warn().Err(err).Str("ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	client := ctl.hub.NewClient(c.ClientIP(), ws)
	if !ctl.hub.Register(client) {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		ws.Close()
		return
	}
	ctl.logger.Debug().Str("client", client.ID).Str("name", c.GetString(middleware.ClientKey)).Msg("websocket connected")

	replies := make(chan services.WebSocketMessage, 16)
	stop := make(chan struct{})
	go ctl.readPump(client, replies, stop)
	go ctl.writePump(client, replies, stop)
}

// readPump handles client requests until the connection drops. Replies go
// through a channel owned by this pump so they never race the hub closing
// client.Send.
func (ctl *Controller) readPump(client *services.ClientConnection, replies chan<- services.WebSocketMessage, stop chan struct{}) {
	defer func() {
		close(stop)
		ctl.hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(msg services.WebSocketMessage) {
		msg.Timestamp = time.Now()
		select {
		case replies <- msg:
		default:
		}
	}

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ctl.logger.Debug().Err(err).Str("client", client.ID).Msg("websocket read")
			}
			return
		}

		switch msg.Type {
		case "ping":
			reply(services.WebSocketMessage{Type: "pong"})

		case "snapshot":
			snap := ctl.source.Snapshot()
			reply(services.WebSocketMessage{Type: "snapshot", Data: snap})

		case "unsubscribe":
			return

		default:
			reply(services.WebSocketMessage{Type: "error", Error: "unknown message type: " + msg.Type})
		}
	}
}

// writePump serialises hub broadcasts, replies and keepalive pings onto
// the connection
func (ctl *Controller) writePump(client *services.ClientConnection, replies <-chan services.WebSocketMessage, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	write := func(msg services.WebSocketMessage) bool {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(msg); err != nil {
			ctl.logger.Debug().Err(err).Str("client", client.ID).Msg("websocket write")
			return false
		}
		return true
	}

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !write(msg) {
				return
			}

		case msg := <-replies:
			if !write(msg) {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return
		}
	}
}

// HandleGetToken issues a token for a named client
func (ctl *Controller) HandleGetToken(c *gin.Context) {
	if ctl.auth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "authentication disabled"})
		return
	}

	name := c.Query("client_name")
	if name == "" {
		name = c.DefaultPostForm("client_name", "dashboard")
	}
	if !middleware.NewInputValidator().ValidateClientName(name) {
		ctl.logger.Warn().Str("ip", c.ClientIP()).Msg("invalid client name format")
		badRequest(c, "invalid client name format")
		return
	}

	token, expiresAt, err := ctl.auth.GenerateToken(name)
	if err != nil {
		ctl.logger.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	ctl.logger.Info().Str("ip", c.ClientIP()).Str("name", name).Msg("token issued")

	scheme := "ws"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "wss"
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"client":     name,
		"url":        scheme + "://" + c.Request.Host + "/ws?token=" + token,
	})
}

// HandleTokenStatus reports whether the presented token is valid
func (ctl *Controller) HandleTokenStatus(c *gin.Context) {
	if ctl.auth == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "authentication disabled"})
		return
	}

	token := middleware.ExtractToken(c)
	if token == "" {
		badRequest(c, "token required in Authorization header or query parameter")
		return
	}

	claims, err := ctl.auth.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"client":     claims.ClientName,
		"expires_at": claims.ExpiresAt.Time,
		"issued_at":  claims.IssuedAt.Time,
	})
}
