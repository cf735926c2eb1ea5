package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// IdleTimeout is how long a signed-in user may stay inactive before being
// signed out automatically.
const IdleTimeout = 5 * time.Minute

// SuppressionPolicy controls which sign-out failures the monitor treats as
// benign when the idle deadline fires.
type SuppressionPolicy int

const (
	// SuppressStaleSessionErrors swallows any failure that indicates the
	// session was already invalid, whether reported by code or by message.
	SuppressStaleSessionErrors SuppressionPolicy = iota
	// SuppressSessionNotFoundOnly swallows only the session_not_found code.
	SuppressSessionNotFoundOnly
)

// Authenticator is the slice of session behavior the monitor needs.
type Authenticator interface {
	HasSession(ctx context.Context) (bool, error)
	SignOut(ctx context.Context) error
}

// MonitorConfig carries the monitor's knobs. Zero values take defaults.
type MonitorConfig struct {
	Timeout time.Duration
	Policy  SuppressionPolicy
}

// Monitor signs the user out after a period of inactivity. Each reported
// activity pushes the deadline back; only one deadline is ever pending. The
// monitor is inert until SetAuthenticated(true).
type Monitor struct {
	auth    Authenticator
	timeout time.Duration
	policy  SuppressionPolicy
	logger  *slog.Logger

	mu     sync.Mutex
	dl     deadline
	authed bool
	closed bool
}

func NewMonitor(auth Authenticator, cfg MonitorConfig, logger *slog.Logger) *Monitor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = IdleTimeout
	}
	return &Monitor{
		auth:    auth,
		timeout: cfg.Timeout,
		policy:  cfg.Policy,
		logger:  logger,
	}
}

// SetAuthenticated arms the idle deadline when the user signs in and disarms
// it when they sign out. While unauthenticated, Activity is a no-op.
func (m *Monitor) SetAuthenticated(authed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.authed = authed
	if authed {
		m.dl.arm(m.timeout, m.expire)
	} else {
		m.dl.cancel()
	}
}

// Activity resets the idle deadline. Rapid bursts of activity collapse into
// a single pending deadline.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.authed {
		return
	}
	m.dl.arm(m.timeout, m.expire)
}

// Close disarms the monitor permanently. Safe to call more than once.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.dl.cancel()
}

// expire runs when the idle deadline fires. The session is verified before
// signing out: if it vanished in the meantime there is nothing to do, and a
// sign-out failure against an already-dead session is logged, not raised.
func (m *Monitor) expire() {
	m.mu.Lock()
	if m.closed || !m.authed {
		m.mu.Unlock()
		return
	}
	m.dl.cancel()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := m.auth.HasSession(ctx)
	if err != nil {
		m.logger.Warn("idle check failed", "error", err)
		return
	}
	if !ok {
		return
	}

	m.logger.Info("idle timeout reached, signing out")
	if err := m.auth.SignOut(ctx); err != nil {
		if m.suppressed(err) {
			m.logger.Warn("idle sign-out raced a dead session", "error", err)
			return
		}
		m.logger.Warn("idle sign-out failed", "error", err)
	}
}

func (m *Monitor) suppressed(err error) bool {
	switch m.policy {
	case SuppressSessionNotFoundOnly:
		var apiErr *APIError
		return errors.As(err, &apiErr) && apiErr.Code == codeSessionNotFound
	default:
		return IsStaleSession(err)
	}
}
