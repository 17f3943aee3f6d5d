package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"calorietrack/logger"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

type WSClient struct {
	UserID string
	Conn   *websocket.Conn

	// gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// Write sends one message with a write deadline.
func (c *WSClient) Write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.Conn.WriteMessage(messageType, data)
}

// RealtimeHub tracks open sockets per user.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
	log     *slog.Logger
}

func NewRealtimeHub(log *slog.Logger) *RealtimeHub {
	return &RealtimeHub{
		clients: make(map[string]map[*WSClient]struct{}),
		log:     logger.Module(log, "realtime"),
	}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes c and closes its connection. Safe to call twice.
func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Subscribers returns the number of open sockets for userID.
func (h *RealtimeHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Broadcast sends payload as JSON to every socket of userID and returns how
// many writes succeeded.
func (h *RealtimeHub) Broadcast(userID string, payload any) int {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal realtime payload", "user_id", userID, "error", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.Write(websocket.TextMessage, msg); err != nil {
			h.log.Warn("realtime write failed", "user_id", userID, "error", err)
			h.Unregister(c)
			continue
		}
		sent++
	}
	return sent
}
