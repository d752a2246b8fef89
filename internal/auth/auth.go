// Package auth owns the learner's account session: the stored token, the
// user it resolves to, and notifying listeners when the session changes.
package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/awwal/internal/progress"
	"github.com/abhisek/awwal/internal/remote"
)

// TokenKey is the persistence key holding the session token.
const TokenKey = "token"

// State is the session as seen by progress tracking.
type State struct {
	IsAuthenticated bool
	Token           string
}

// Listener is notified after every session change.
type Listener func(ctx context.Context, s State)

// Manager tracks the current session. It is safe for concurrent use.
type Manager struct {
	client remote.Client
	store  progress.Persistence
	logger *zap.Logger

	mu        sync.RWMutex
	token     string
	user      *remote.User
	stats     *remote.UserStats
	lastErr   string
	listeners []Listener
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates an anonymous Manager. Call Restore to pick up a
// stored session.
func NewManager(client remote.Client, store progress.Persistence, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers l for session changes.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// State returns the current session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	if m.user == nil || m.token == "" {
		return State{}
	}
	return State{IsAuthenticated: true, Token: m.token}
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *remote.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Stats returns the headline numbers reported at sign-in, or nil.
func (m *Manager) Stats() *remote.UserStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stats == nil {
		return nil
	}
	s := *m.stats
	return &s
}

// Err returns the message of the last failed login or registration.
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ClearError forgets the last auth error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = ""
}

// Restore resolves a stored token to its user. Any failure, including a
// network error, drops the stored token and leaves the session anonymous.
func (m *Manager) Restore(ctx context.Context) State {
	raw, ok, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		m.logger.Warn("read stored token", zap.Error(err))
		return m.State()
	}
	if !ok || len(raw) == 0 {
		return m.State()
	}
	token := string(raw)

	res, err := m.client.Me(ctx, token)
	if err != nil {
		m.logger.Warn("restore session", zap.Error(err))
		if err := m.store.Delete(context.WithoutCancel(ctx), TokenKey); err != nil {
			m.logger.Warn("drop stored token", zap.Error(err))
		}
		return m.State()
	}

	m.adopt(ctx, token, res)
	return m.State()
}

// Login exchanges credentials for a session. On failure the message is
// also kept for Err and the session is unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.ClearError()
	res, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.fail(err, "Login failed")
		return err
	}
	m.persistToken(ctx, res.Token)
	m.adopt(ctx, res.Token, res)
	return nil
}

// Register creates an account and signs in to it. Stats start at zero.
func (m *Manager) Register(ctx context.Context, email, password, name string) error {
	m.ClearError()
	res, err := m.client.Register(ctx, email, password, name)
	if err != nil {
		m.fail(err, "Registration failed")
		return err
	}
	res.Stats = &remote.UserStats{}
	m.persistToken(ctx, res.Token)
	m.adopt(ctx, res.Token, res)
	return nil
}

// Logout forgets the session and wipes the stored token and progress, so
// the next load starts from the default record. Listeners are notified even
// if a delete fails; the failures are returned joined.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	if err := m.store.Delete(ctx, TokenKey); err != nil {
		errs = append(errs, err)
	}
	if err := progress.ClearProgress(ctx, m.store); err != nil {
		errs = append(errs, err)
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.stats = nil
	m.lastErr = ""
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, State{})
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.Warn("clear session data", zap.Error(err))
		return err
	}
	return nil
}

func (m *Manager) persistToken(ctx context.Context, token string) {
	if err := m.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		m.logger.Warn("store session token", zap.Error(err))
	}
}

func (m *Manager) adopt(ctx context.Context, token string, res *remote.AuthResult) {
	m.mu.Lock()
	before := m.stateLocked()
	m.token = token
	u := res.User
	m.user = &u
	if res.Stats != nil {
		s := *res.Stats
		m.stats = &s
	} else {
		m.stats = nil
	}
	after := m.stateLocked()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if before == after {
		return
	}
	for _, l := range listeners {
		l(ctx, after)
	}
}

func (m *Manager) fail(err error, fallback string) {
	msg := fallback
	var authErr *remote.ErrAuth
	if errors.As(err, &authErr) && authErr.Message != "" {
		msg = authErr.Message
	}

	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()

	m.logger.Debug("auth rejected", zap.String("message", msg), zap.Error(err))
}
