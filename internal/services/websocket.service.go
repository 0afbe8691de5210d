package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"` // "snapshot", "auth", "ping", "pong", "error"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Token     string      `json:"token,omitempty"` // For auth messages from client
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// WebSocketHub manages all connected WebSocket clients and pushes the
// latest snapshot to them once per interval
type WebSocketHub struct {
	source   SnapshotSource
	interval time.Duration
	logger   zerolog.Logger

	clients    map[string]*ClientConnection
	mu         sync.RWMutex
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	done       chan struct{}
	seq        atomic.Uint64
}

// NewWebSocketHub creates a hub; call Run to start it
func NewWebSocketHub(source SnapshotSource, interval time.Duration, logger zerolog.Logger) *WebSocketHub {
	if interval <= 0 {
		interval = time.Second
	}
	return &WebSocketHub{
		source:     source,
		interval:   interval,
		logger:     logger.With().Str("component", "websocket").Logger(),
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
	}
}

// Run manages the hub's event loop until ctx is done
func (h *WebSocketHub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("client", client.ID).Int("total", total).Msg("client connected")

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info().Str("client", clientID).Int("total", total).Msg("client disconnected")

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			msg, err := h.snapshotMessage()
			if err != nil {
				h.logger.Error().Err(err).Msg("encode snapshot")
				continue
			}
			h.fanOut(msg)
		}
	}
}

// fanOut delivers msg to every client whose send buffer has room
func (h *WebSocketHub) fanOut(msg WebSocketMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			// Client's send channel is full, skip this message
		}
	}
}

func (h *WebSocketHub) closeAll() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// snapshotMessage encodes the latest snapshot once for all clients
func (h *WebSocketHub) snapshotMessage() (WebSocketMessage, error) {
	snapshot := h.source.Snapshot()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return WebSocketMessage{}, err
	}
	return WebSocketMessage{
		Type:      "snapshot",
		Timestamp: snapshot.LastUpdate,
		Data:      json.RawMessage(data),
	}, nil
}

// NewClient allocates a client with a unique id for a remote address
func (h *WebSocketHub) NewClient(remote string, conn *websocket.Conn) *ClientConnection {
	return &ClientConnection{
		ID:   fmt.Sprintf("%s-%d", remote, h.seq.Add(1)),
		Conn: conn,
		Send: make(chan WebSocketMessage, 256),
	}
}

// Register adds a new client to the hub. It reports false once the hub
// has stopped.
func (h *WebSocketHub) Register(client *ClientConnection) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Broadcast queues a message for all connected clients
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		// Channel full, drop
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
