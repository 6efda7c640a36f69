package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/middleware"
)

// Status is the three-state view of the session that views branch on.
type Status int

const (
	// StatusLoading means hydration has not finished.
	StatusLoading Status = iota
	// StatusAuthenticated means a token and a profile are present.
	StatusAuthenticated
	// StatusAnonymous means hydration finished without a usable session.
	StatusAnonymous
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Authenticator is the backend surface the manager needs.
// *api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Signup(ctx context.Context, name, email, password string) (*api.AuthResult, error)
	Me(ctx context.Context, token string) (*api.User, error)
	Logout(ctx context.Context, token string) error
}

// Hydration results recorded in metrics.
const (
	hydrateAuthenticated = "authenticated"
	hydrateAnonymous     = "anonymous"
	hydrateExpired       = "expired"
	hydrateNetwork       = "network"
	hydrateStorage       = "storage_error"
	hydrateSuperseded    = "superseded"
)

// Manager owns the process-wide session: the bearer token and the profile
// of the signed-in user. It is safe for concurrent use.
//
// Every login, signup, logout and expiry bumps a generation counter.
// Hydration captures the generation when it starts and drops its result
// if the counter moved while /api/auth/me was in flight.
type Manager struct {
	auth          Authenticator
	storage       Storage
	events        bus.Publisher
	logger        *slog.Logger
	now           func() time.Time
	logoutTimeout time.Duration

	mu         sync.RWMutex
	token      string
	user       *api.User
	loading    bool
	generation uint64

	hydrateOnce sync.Once
	hydrated    chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithPublisher sets where sessionChanged is published.
func WithPublisher(p bus.Publisher) ManagerOption {
	return func(m *Manager) {
		m.events = p
	}
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogoutTimeout bounds the best-effort backend logout call.
// Default: 5 seconds.
func WithLogoutTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.logoutTimeout = d
		}
	}
}

// NewManager creates a manager in the loading state. Call Hydrate once at
// startup. A nil storage means MemoryStorage.
func NewManager(auth Authenticator, storage Storage, opts ...ManagerOption) *Manager {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	m := &Manager{
		auth:          auth,
		storage:       storage,
		logger:        slog.Default(),
		now:           time.Now,
		logoutTimeout: 5 * time.Second,
		loading:       true,
		hydrated:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate restores the session from persisted storage. It runs at most
// once; later calls wait for the first to finish. Failures leave the
// session anonymous and are never returned.
func (m *Manager) Hydrate(ctx context.Context) {
	m.hydrateOnce.Do(func() {
		m.hydrate(ctx)
	})
}

func (m *Manager) hydrate(ctx context.Context) {
	m.mu.RLock()
	gen := m.generation
	m.mu.RUnlock()

	token, err := m.storage.Get(ctx, TokenKey)
	if err != nil {
		m.logger.Warn("session token unreadable", "error", err)
		m.finishHydration(gen, "", nil, hydrateStorage)
		return
	}
	if token == "" {
		m.finishHydration(gen, "", nil, hydrateAnonymous)
		return
	}

	if m.tokenExpired(token) {
		m.logger.Debug("persisted session token has expired")
		m.forget(ctx, gen)
		m.finishHydration(gen, "", nil, hydrateExpired)
		return
	}

	user, err := m.auth.Me(ctx, token)
	switch {
	case err == nil && user != nil:
		m.finishHydration(gen, token, user, hydrateAuthenticated)
	case api.IsNetwork(err) || ctx.Err() != nil:
		// The token may still be good; try again next start.
		m.logger.Info("session hydration failed: backend unreachable", "error", err)
		m.finishHydration(gen, "", nil, hydrateNetwork)
	default:
		m.logger.Info("persisted session rejected", "error", err)
		m.forget(ctx, gen)
		m.finishHydration(gen, "", nil, hydrateExpired)
	}
}

// forget deletes the persisted token unless a newer session replaced it.
func (m *Manager) forget(ctx context.Context, gen uint64) {
	m.mu.RLock()
	stale := m.generation != gen
	m.mu.RUnlock()
	if stale {
		return
	}
	if err := m.storage.Delete(ctx, TokenKey); err != nil {
		m.logger.Warn("failed to delete session token", "error", err)
	}
}

func (m *Manager) finishHydration(gen uint64, token string, user *api.User, result string) {
	m.mu.Lock()
	applied := m.generation == gen
	if applied {
		m.token = token
		m.user = user.Clone()
	} else {
		result = hydrateSuperseded
	}
	m.loading = false
	m.mu.Unlock()

	close(m.hydrated)
	middleware.RecordHydration(result)
	m.logger.Debug("session hydrated", "result", result)

	if applied {
		m.publish()
	}
}

func (m *Manager) tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		// Opaque tokens are checked by the backend.
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(m.now())
}

// Login exchanges credentials for a session. On failure the session is
// unchanged and the error is an *api.AuthenticationError.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return authFailure(err, "Login failed")
	}
	return m.establish(ctx, res, "Login failed")
}

// Signup creates an account and signs in to it. On failure the session is
// unchanged and the error is an *api.AuthenticationError.
func (m *Manager) Signup(ctx context.Context, name, email, password string) error {
	res, err := m.auth.Signup(ctx, name, email, password)
	if err != nil {
		return authFailure(err, "Signup failed")
	}
	return m.establish(ctx, res, "Signup failed")
}

func authFailure(err error, fallback string) error {
	var ae *api.AuthenticationError
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae
		}
		return &api.AuthenticationError{Status: ae.Status, Message: fallback, Err: ae.Err}
	}
	return &api.AuthenticationError{Message: fallback, Err: err}
}

func (m *Manager) establish(ctx context.Context, res *api.AuthResult, fallback string) error {
	if res == nil || res.Token == "" || res.User == nil {
		return &api.AuthenticationError{Message: fallback}
	}

	m.mu.Lock()
	m.generation++
	m.token = res.Token
	m.user = res.User.Clone()
	m.mu.Unlock()

	// The in-memory session stays valid when persisting fails; the next
	// start is simply anonymous.
	if err := m.storage.Set(ctx, TokenKey, res.Token); err != nil {
		m.logger.Warn("failed to persist session token", "error", err)
	}

	m.logger.Info("signed in", "user_id", res.User.UserID)
	m.publish()
	return nil
}

// Logout ends the session. Local state is cleared before the backend is
// told; the backend call is best-effort.
func (m *Manager) Logout(ctx context.Context) {
	token := m.clear()

	if err := m.storage.Delete(ctx, TokenKey); err != nil {
		m.logger.Warn("failed to delete session token", "error", err)
	}
	m.publish()

	if token == "" {
		return
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
	defer cancel()
	if err := m.auth.Logout(lctx, token); err != nil {
		m.logger.Debug("backend logout failed", "error", err)
	}
}

// Expire drops a session the backend no longer accepts. Unlike Logout it
// makes no backend call. Expiring an anonymous session does nothing.
func (m *Manager) Expire() {
	if m.clear() == "" {
		return
	}
	if err := m.storage.Delete(context.Background(), TokenKey); err != nil {
		m.logger.Warn("failed to delete session token", "error", err)
	}
	m.logger.Info("session expired")
	m.publish()
}

// HandleUnauthorized adapts Expire to api.Client.OnUnauthorized.
func (m *Manager) HandleUnauthorized(err *api.SessionExpiredError) {
	m.logger.Debug("backend rejected session token", "op", err.Op, "status", err.Status)
	m.Expire()
}

// clear resets the in-memory session and returns the old token.
func (m *Manager) clear() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.token
	m.generation++
	m.token = ""
	m.user = nil
	return token
}

// Refresh re-fetches the profile and replaces it wholesale.
func (m *Manager) Refresh(ctx context.Context) error {
	token := m.Token()
	if token == "" {
		return fmt.Errorf("refresh profile: %w", api.ErrAnonymous)
	}
	user, err := m.auth.Me(ctx, token)
	if err != nil {
		if api.IsSessionExpired(err) {
			m.Expire()
		}
		return err
	}

	m.mu.Lock()
	current := m.token == token
	if current {
		m.user = user.Clone()
	}
	m.mu.Unlock()

	if current {
		m.publish()
	}
	return nil
}

func (m *Manager) publish() {
	if m.events != nil {
		m.events.Publish(bus.SessionChanged)
	}
}

// IsAuthenticated reports whether both a token and a profile are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// Status returns the current session status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.token != "" && m.user != nil:
		return StatusAuthenticated
	case m.loading:
		return StatusLoading
	default:
		return StatusAnonymous
	}
}

// Token returns the bearer token, or "" when anonymous. It implements
// api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns a copy of the profile, or nil when anonymous.
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// Wait blocks until hydration has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the storage backend.
func (m *Manager) Close() error {
	return m.storage.Close()
}
