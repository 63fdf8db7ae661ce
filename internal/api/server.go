package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/risklens/pkg/logger"
)

const drainTimeout = 30 * time.Second

type background struct {
	name string
	run  func(ctx context.Context)
}

// Server serves the API and runs the background services it depends on,
// such as the stream hub and an in-process scheduler.
// Services start before the listener and stop after it has drained.
type Server struct {
	httpServer *http.Server
	services   []background
	drain      time.Duration
	logger     *logger.Logger
}

// NewServer creates a server for handler on addr (":8080")
func NewServer(addr string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		drain:  drainTimeout,
		logger: log.WithComponent("server"),
	}
}

// Go registers a background service. run must return once its context is cancelled.
func (s *Server) Go(name string, run func(ctx context.Context)) {
	s.services = append(s.services, background{name: name, run: run})
}

// Run listens on the configured address and blocks until ctx is cancelled or the listener fails
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	bgCtx, stopServices := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, svc := range s.services {
		wg.Add(1)
		go func(svc background) {
			defer wg.Done()
			s.logger.WithField("service", svc.name).Debug("Background service started")
			svc.run(bgCtx)
			s.logger.WithField("service", svc.name).Debug("Background service stopped")
		}(svc)
	}
	defer func() {
		stopServices()
		wg.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	s.logger.WithField("addr", ln.Addr().String()).Info("API server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Draining API server")
	drainCtx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()

	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
