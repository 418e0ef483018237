package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stackway/edgecert/core/logger"
)

// Server wraps http.Server with synchronous binding, connection tracking and
// bounded draining. Safe for concurrent use. A server holds at most one live
// listener; after Drain or Close it cannot be reused.
type Server struct {
	mu             sync.Mutex
	addr           string
	logger         *slog.Logger
	shutdown       time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	drainPoll      time.Duration
	maxHeaderBytes int
	tlsConfig      *tls.Config

	server   *http.Server
	listener net.Listener
	active   atomic.Int64
	bound    bool
}

// New creates a new Server with the given address and options.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		logger:         logger.Discard(),
		shutdown:       DefaultShutdownTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		idleTimeout:    DefaultIdleTimeout,
		drainPoll:      DefaultDrainPollInterval,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Listen binds the listener and starts serving in the background. It returns
// once the server is accepting connections, so a nil error means the bind is
// confirmed. Bind failures are reported as ErrBind.
func (s *Server) Listen(handler http.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr == "" {
		return ErrMissingAddress
	}
	if s.bound {
		return ErrServerAlreadyRunning
	}

	ln, err := listen(s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, s.addr, err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}

	s.server = &http.Server{
		Handler:        handler,
		ReadTimeout:    s.readTimeout,
		WriteTimeout:   s.writeTimeout,
		IdleTimeout:    s.idleTimeout,
		MaxHeaderBytes: s.maxHeaderBytes,
		ConnState:      s.trackConn,
	}
	s.listener = ln
	s.bound = true

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("listener stopped unexpectedly", logger.Addr(s.addr), logger.Error(err))
		}
	}()

	s.logger.Info("listener bound", logger.Addr(ln.Addr().String()),
		slog.Bool("tls", s.tlsConfig != nil))
	return nil
}

// trackConn maintains the active connection count used by draining.
func (s *Server) trackConn(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.active.Add(1)
	case http.StateHijacked, http.StateClosed:
		s.active.Add(-1)
	}
}

// ActiveConnections returns the number of currently open connections.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

// Addr returns the bound address, or the configured address before binding.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Drain stops accepting new connections immediately, then waits for in-flight
// connections to finish, re-checking every poll interval. When maxDrainTime
// expires first, remaining connections are force-closed. The returned flag
// reports whether the drain completed naturally; hitting the deadline is a
// bounded-wait expiry, not a failure.
func (s *Server) Drain(ctx context.Context, maxDrainTime time.Duration) (drained bool, err error) {
	s.mu.Lock()
	if !s.bound || s.server == nil {
		s.mu.Unlock()
		return true, nil
	}
	srv := s.server
	ln := s.listener
	s.bound = false
	s.mu.Unlock()

	if maxDrainTime <= 0 {
		maxDrainTime = DefaultDrainTime
	}

	// Close the accept socket first; existing connections keep running.
	_ = ln.Close()
	srv.SetKeepAlivesEnabled(false)

	start := time.Now()
	deadline := time.NewTimer(maxDrainTime)
	defer deadline.Stop()
	ticker := time.NewTicker(s.drainPoll)
	defer ticker.Stop()

	for {
		if s.active.Load() <= 0 {
			_ = srv.Close()
			s.logger.Info("drain complete", logger.Addr(s.addr), logger.Elapsed(start))
			return true, nil
		}

		select {
		case <-deadline.C:
			// Force-close whatever is left so dependents get a
			// deterministic completion signal.
			s.logger.Warn("drain deadline reached, closing remaining connections",
				logger.Addr(s.addr), slog.Int64("remaining", s.active.Load()),
				logger.Duration(maxDrainTime))
			_ = srv.Close()
			return false, nil
		case <-ctx.Done():
			_ = srv.Close()
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown gracefully stops the server using the configured timeout. Used for
// process exit; renewal swaps use Drain instead.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.bound || s.server == nil {
		s.mu.Unlock()
		return nil
	}
	srv := s.server
	s.bound = false
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown error", logger.Addr(s.addr), logger.Error(err))
		return err
	}
	s.logger.Info("server shutdown complete", logger.Addr(s.addr))
	return nil
}

// Close stops the server immediately without draining.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	s.bound = false
	return s.server.Close()
}

// Run provides errgroup compatibility: it binds the listener, waits for
// context cancellation, and shuts down gracefully.
func (s *Server) Run(ctx context.Context, handler http.Handler) func() error {
	return func() error {
		if err := s.Listen(handler); err != nil {
			return err
		}
		<-ctx.Done()
		return s.Shutdown()
	}
}
