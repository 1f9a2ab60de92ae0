package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/openaria/ariad/internal/logger"
	"github.com/openaria/ariad/pkg/ingest"
	"github.com/openaria/ariad/pkg/store"
)

// Server is the HTTP server for both the scale protocol and the
// management API. It supports graceful shutdown with a configurable
// timeout.
type Server struct {
	server       *http.Server
	config       ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates a configured but not yet started Server.
func NewServer(config ServerConfig, st store.Store, pipeline *ingest.Pipeline, unit string) *Server {
	config.ApplyDefaults()

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewRouter(st, pipeline, unit),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config: config,
	}
}

// Start serves until the context is cancelled or the listener fails.
// Cancellation triggers graceful shutdown bounded by shutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("HTTP server shutdown signal received")
		// A fresh context: the cancelled one would abort the drain
		// immediately and cut off in-flight ingest transactions.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.server.Shutdown(ctx)
	})
	return err
}
