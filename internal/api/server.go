// Package api serves a read-only local status surface for the bot: a JSON
// snapshot of scheduler state at /api/snapshot and a WebSocket activity
// stream at /ws carrying replies, retweets, task runs, and errors as they
// happen. It publishes nothing and accepts no commands; the bot behaves
// identically with the server disabled.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joris1013/twitterbot-x/internal/config"
)

// StatusProvider is the slice of the scheduler the status server reads.
// Status must be safe to call from any goroutine; Events is a stream the
// provider produces for as long as it runs.
type StatusProvider interface {
	Status() Snapshot
	Events() <-chan Event
}

// Server runs the HTTP/WebSocket status endpoint.
type Server struct {
	provider StatusProvider
	hub      *Hub
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates the status server on the configured port.
func NewServer(cfg config.StatusConfig, provider StatusProvider, logger *slog.Logger) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(provider, cfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/ws", handlers.HandleStream)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		provider: provider,
		hub:      hub,
		server:   server,
		logger:   logger.With("component", "status-server"),
	}
}

// Start runs the hub, the event fan-out, and the HTTP listener. It blocks
// until the listener stops.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.consumeEvents()

	s.logger.Info("status server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop() error {
	s.logger.Info("stopping status server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// consumeEvents forwards scheduler activity to the hub.
func (s *Server) consumeEvents() {
	for evt := range s.provider.Events() {
		s.hub.BroadcastEvent(evt)
	}
}
