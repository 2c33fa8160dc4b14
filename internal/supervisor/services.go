// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Service wrappers that adapt the HTTP server and the precompute
// scheduler to the suture.Service interface. Each wrapper implements
// Serve(context.Context) error and shuts down cleanly when the context
// is canceled.

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/precompute"
)

// HTTPService runs an *http.Server under supervision.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps the server. shutdownTimeout bounds graceful
// drain; zero means 10s.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. It blocks in ListenAndServe and
// drains in-flight requests when the context is canceled.
func (s *HTTPService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("http")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Str("addr", s.server.Addr).Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
		}
		<-errCh
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (s *HTTPService) String() string {
	return "http-server"
}

// PrecomputeService ties the precompute scheduler's lifecycle to the
// supervision tree: runs are started on demand through the API, but
// shutdown must stop any active run.
type PrecomputeService struct {
	scheduler *precompute.Scheduler
}

// NewPrecomputeService wraps the scheduler.
func NewPrecomputeService(scheduler *precompute.Scheduler) *PrecomputeService {
	return &PrecomputeService{scheduler: scheduler}
}

// Serve implements suture.Service. It blocks until shutdown, then
// cancels the active run and waits for the drain goroutine to exit.
func (s *PrecomputeService) Serve(ctx context.Context) error {
	<-ctx.Done()

	s.scheduler.Stop()
	select {
	case <-s.scheduler.Wait():
	case <-time.After(5 * time.Second):
		log := logging.WithComponent("precompute")
		log.Warn().Msg("precompute run did not stop in time")
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *PrecomputeService) String() string {
	return "precompute-scheduler"
}
