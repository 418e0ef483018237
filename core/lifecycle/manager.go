package lifecycle

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stackway/edgecert/core/ca"
	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/registry"
	"github.com/stackway/edgecert/core/server"
)

// Role identifies one of the two independent HTTPS listeners.
type Role string

const (
	RoleMain   Role = "main"
	RoleSecond Role = "second"
)

// Roles lists both roles in swap order.
func Roles() []Role {
	return []Role{RoleMain, RoleSecond}
}

// Config holds the lifecycle manager settings.
type Config struct {
	// DrainTime bounds how long a replaced listener waits for in-flight
	// connections before remaining ones are force-closed.
	DrainTime time.Duration

	// Registry records bind/unbind transitions for sibling processes.
	Registry registry.Registry

	// Logger for lifecycle events.
	Logger *slog.Logger

	// ServerOptions are applied to every listener the manager creates.
	ServerOptions []server.Option
}

// handle couples a live listener with what it needs to be rebuilt on swap.
type handle struct {
	srv     *server.Server
	addr    string
	handler http.Handler
}

// Manager owns the listeners for both roles. Each role holds exactly zero or
// one live handle.
type Manager struct {
	mu        sync.Mutex
	drainTime time.Duration
	registry  registry.Registry
	logger    *slog.Logger
	options   []server.Option
	handles   map[Role]*handle
}

// NewManager creates a dual-server lifecycle manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.DrainTime <= 0 {
		cfg.DrainTime = server.DefaultDrainTime
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}

	return &Manager{
		drainTime: cfg.DrainTime,
		registry:  cfg.Registry,
		logger:    cfg.Logger.With(logger.Component("lifecycle")),
		options:   cfg.ServerOptions,
		handles:   make(map[Role]*handle),
	}, nil
}

func (m *Manager) newServer(addr string, tlsCfg *tls.Config) *server.Server {
	opts := make([]server.Option, 0, len(m.options)+2)
	opts = append(opts, m.options...)
	opts = append(opts, server.WithLogger(m.logger))
	if tlsCfg != nil {
		opts = append(opts, server.WithTLS(tlsCfg))
	}
	return server.New(addr, opts...)
}

func tlsConfigFor(material *ca.CertificateMaterial) (*tls.Config, error) {
	if material == nil {
		return nil, nil
	}
	cert, err := material.TLSCertificate()
	if err != nil {
		return nil, err
	}
	return server.TLSConfigFor(cert), nil
}

// Bind starts a listener for the role. A nil material binds plain HTTP: the
// degraded mode used at cold boot when credentials are entirely absent, so the
// process keeps serving instead of crashing. The registry is updated to
// reflect the outcome either way.
func (m *Manager) Bind(ctx context.Context, role Role, addr string, material *ca.CertificateMaterial, h http.Handler) error {
	if role != RoleMain && role != RoleSecond {
		return fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handles[role]; exists {
		return fmt.Errorf("%w: %s", ErrRoleBound, role)
	}

	tlsCfg, err := tlsConfigFor(material)
	if err != nil {
		m.setRegistry(ctx, role, false)
		return err
	}

	srv := m.newServer(addr, tlsCfg)
	if err := srv.Listen(h); err != nil {
		m.logger.Error("listener failed to bind",
			logger.Role(string(role)), logger.Addr(addr), logger.Error(err))
		m.setRegistry(ctx, role, false)
		return err
	}

	// Store the resolved address so a later swap rebinds the same port
	// even when the configured one was ephemeral.
	m.handles[role] = &handle{srv: srv, addr: srv.Addr(), handler: h}
	m.setRegistry(ctx, role, true)

	m.logger.Info("server bound", logger.Role(string(role)), logger.Addr(srv.Addr()),
		slog.Bool("tls", tlsCfg != nil))
	return nil
}

// Swap replaces the role's listener with one bound to new credentials. The
// replacement is confirmed listening before the old listener is drained and
// closed, so at no point is the role without an accepting listener. On bind
// failure the old listener stays current and the registry flag is untouched.
func (m *Manager) Swap(ctx context.Context, role Role, material *ca.CertificateMaterial) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.handles[role]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoListener, role)
	}

	tlsCfg, err := tlsConfigFor(material)
	if err != nil {
		return err
	}

	next := m.newServer(old.addr, tlsCfg)
	if err := next.Listen(old.handler); err != nil {
		// Roll back: the failed replacement is discarded, the old
		// listener keeps serving.
		_ = next.Close()
		m.logger.Error("swap aborted, keeping previous listener",
			logger.Role(string(role)), logger.Addr(old.addr), logger.Error(err))
		return err
	}

	m.handles[role] = &handle{srv: next, addr: old.addr, handler: old.handler}
	m.setRegistry(ctx, role, true)

	drained, err := old.srv.Drain(ctx, m.drainTime)
	if err != nil {
		return fmt.Errorf("drain interrupted for %s: %w", role, err)
	}
	if !drained {
		m.logger.Warn("old listener force-closed after drain deadline",
			logger.Role(string(role)), logger.Duration(m.drainTime))
	}

	m.logger.Info("server swapped onto new credentials", logger.Role(string(role)))
	return nil
}

// Server returns the live server for a role, or nil.
func (m *Manager) Server(role Role) *server.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handles[role]; ok {
		return h.srv
	}
	return nil
}

// Shutdown gracefully stops all live listeners and clears their registry
// flags.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for role, h := range m.handles {
		if err := h.srv.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.setRegistry(ctx, role, false)
		delete(m.handles, role)
	}
	return firstErr
}

// setRegistry records a bind transition. Registry write failures are logged,
// not propagated: losing the status record must not take down a live server.
func (m *Manager) setRegistry(ctx context.Context, role Role, up bool) {
	var err error
	switch role {
	case RoleMain:
		err = m.registry.SetMainServer(ctx, up)
	case RoleSecond:
		err = m.registry.SetSecondServer(ctx, up)
	}
	if err != nil {
		m.logger.Error("failed to update server status registry",
			logger.Role(string(role)), logger.Error(err))
	}
}
