// Package api exposes the wallboard HTTP API: the public benchmark
// read path, the admin session endpoints, and the gated update path.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nordkredit/wallboard/pkg/config"
	"github.com/nordkredit/wallboard/pkg/session"
	"github.com/nordkredit/wallboard/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.Config
	sessions   *session.Codec
	repo       *store.Client
	httpServer *http.Server
	wg         sync.WaitGroup
}

// NewServer creates a new API server. Secrets and credentials are read
// once from cfg and never re-read at request time.
func NewServer(log logrus.FieldLogger, cfg *config.Config) Server {
	return &server{
		log:      log.WithField("component", "api"),
		cfg:      cfg,
		sessions: session.New(&cfg.Auth),
		repo:     store.NewClient(log, &cfg.Store),
	}
}

// Start builds the router and starts the HTTP server.
func (s *server) Start(ctx context.Context) error {
	if !s.cfg.Store.ReadConfigured() {
		s.log.Warn("Store not configured, serving default rows (demo mode)")
	}

	if !s.cfg.Store.WriteConfigured() {
		s.log.Warn("Store write key not configured, updates will fail")
	}

	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", s.cfg.Server.Listen).
			Info("Wallboard API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	s.log.Info("Wallboard API server stopped")

	return nil
}
