package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joris1013/twitterbot-x/internal/config"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	provider StatusProvider
	cfg      config.StatusConfig
	hub      *Hub
	logger   *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(provider StatusProvider, cfg config.StatusConfig, hub *Hub, logger *slog.Logger) *Handlers {
	return &Handlers{
		provider: provider,
		cfg:      cfg,
		hub:      hub,
		logger:   logger.With("component", "status-handlers"),
	}
}

// HandleHealth answers liveness probes.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSnapshot returns the current bot state.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := h.provider.Status()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.logger.Error("encode snapshot failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// HandleStream upgrades the connection, registers the client with the hub,
// and pushes an initial snapshot so new consumers start from current state.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r.Header.Get("Origin"), h.cfg, r.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn)

	evt := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Data:      h.provider.Status(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("marshal initial snapshot failed", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("initial snapshot dropped, client buffer full")
	}
}

// isOriginAllowed decides whether a browser origin may open the stream.
// Non-browser clients (no Origin header) always may. With an explicit
// allowlist only listed origins pass; otherwise local and same-host
// origins pass.
func isOriginAllowed(origin string, cfg config.StatusConfig, reqHost string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	if len(cfg.AllowedOrigins) > 0 {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return u.Host == reqHost
}
