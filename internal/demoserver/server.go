// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package demoserver is the demo studio backend: a local stand-in for the
// real orchestration service. It hands out session identifiers and replays
// scripted scenarios over each session's status feed, so the product demo
// and the client core run without any backend.
package demoserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/festivo/festivo/internal/config"
	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/replay"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetDemoServerLogger()
		log = &l
	})
	return log
}

// Server is the demo studio REST + WebSocket server.
type Server struct {
	httpServer *http.Server
	sessions   *sessionRegistry
}

// New creates and wires up the demo server. It does NOT start listening -
// call Run() for that.
func New(cfg *config.DemoConfig, library map[string]replay.Scenario) *Server {
	sessions := newSessionRegistry(library, cfg.DefaultScenario)
	handlers := &Handlers{sessions: sessions}

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(MaxBodySize(1 << 20)) // 1 MB default

	// REST routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plans", handlers.StartPlan)
		r.Get("/plans/{sessionID}/status", handlers.GetStatus)
		r.Post("/feedback", handlers.SubmitFeedback)
		r.Get("/scenarios", handlers.ListScenarios)
	})

	// Per-session status feed
	r.Get("/ws/{sessionID}", HandleStatusFeed(sessions, cfg.AllowedOrigins))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		sessions: sessions,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run starts the HTTP server. Blocks until the server is shut down.
func (s *Server) Run(ctx context.Context) error {
	getLog().Info().Str("addr", s.httpServer.Addr).Msg("Demo studio listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
