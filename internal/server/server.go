// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server is the Slack + REST + WebSocket API server.
type Server struct {
	httpServer  *http.Server
	broadcaster *EventBroadcaster
}

// New creates and wires up the API server. It does NOT start listening;
// call Run() for that.
func New(cfg *config.ServerConfig, eventChan <-chan protocol.Event, interactions InteractionService) *Server {
	hub := NewHub()
	broadcaster := NewEventBroadcaster(eventChan, hub)
	handlers := NewHandlers(interactions, cfg.DispatchTimeout)

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1 MB default
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(MaxBodySize(maxBody))

	// Slack interactivity callback
	r.Post("/slack/interactions", handlers.SlackInteractions)

	// REST routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/interactions", handlers.ListInteractions)
		r.Post("/interactions/encode", handlers.EncodeInteraction)
		r.Post("/interactions/decode", handlers.DecodeInteraction)
		r.Post("/interactions/dispatch", handlers.DispatchInteraction)
	})

	// WebSocket
	r.Get("/ws", HandleWebSocket(hub, cfg.AllowedOrigins))

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           otelhttp.NewHandler(r, "tsbridge.http"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		broadcaster: broadcaster,
	}
}

// Handler exposes the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the event broadcaster and the HTTP server. It blocks until the
// server is shut down.
func (s *Server) Run(ctx context.Context) error {
	go s.broadcaster.Run(ctx)

	getLog().Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
