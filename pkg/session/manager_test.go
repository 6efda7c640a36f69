package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-cmp/cmp"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
)

type fakeAuth struct {
	mu sync.Mutex

	loginFn  func(email, password string) (*api.AuthResult, error)
	signupFn func(name, email, password string) (*api.AuthResult, error)
	meFn     func(ctx context.Context, token string) (*api.User, error)
	logoutFn func(token string) error

	meCalls      int
	logoutTokens []string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.AuthResult, error) {
	return f.loginFn(email, password)
}

func (f *fakeAuth) Signup(ctx context.Context, name, email, password string) (*api.AuthResult, error) {
	return f.signupFn(name, email, password)
}

func (f *fakeAuth) Me(ctx context.Context, token string) (*api.User, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()
	return f.meFn(ctx, token)
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	f.logoutTokens = append(f.logoutTokens, token)
	f.mu.Unlock()
	if f.logoutFn != nil {
		return f.logoutFn(token)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []bus.Event
}

func (p *recordingPublisher) Publish(ev bus.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) count(ev bus.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == ev {
			n++
		}
	}
	return n
}

var alice = &api.User{UserID: "u1", Name: "Alice", Email: "alice@example.com"}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func newTestManager(t *testing.T, auth *fakeAuth, storage Storage) (*Manager, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	m := NewManager(auth, storage, WithPublisher(pub))
	return m, pub
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusLoading:       "loading",
		StatusAuthenticated: "authenticated",
		StatusAnonymous:     "anonymous",
		Status(9):           "Status(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

func TestManagerStartsLoading(t *testing.T) {
	m, _ := newTestManager(t, &fakeAuth{}, nil)
	if m.Status() != StatusLoading {
		t.Fatalf("Status() = %v, want loading", m.Status())
	}
	if m.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true before hydration")
	}
}

func TestHydrateWithoutToken(t *testing.T) {
	auth := &fakeAuth{}
	m, pub := newTestManager(t, auth, NewMemoryStorage())

	m.Hydrate(context.Background())

	if m.Status() != StatusAnonymous {
		t.Fatalf("Status() = %v, want anonymous", m.Status())
	}
	if auth.meCalls != 0 {
		t.Errorf("Me called %d times, want 0", auth.meCalls)
	}
	if pub.count(bus.SessionChanged) != 1 {
		t.Errorf("sessionChanged published %d times, want 1", pub.count(bus.SessionChanged))
	}
}

func TestHydrateValidToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, "opaque-token")

	auth := &fakeAuth{meFn: func(_ context.Context, token string) (*api.User, error) {
		if token != "opaque-token" {
			t.Errorf("Me token = %q", token)
		}
		return alice, nil
	}}
	m, _ := newTestManager(t, auth, storage)
	m.Hydrate(ctx)

	if m.Status() != StatusAuthenticated {
		t.Fatalf("Status() = %v, want authenticated", m.Status())
	}
	if m.Token() != "opaque-token" {
		t.Errorf("Token() = %q", m.Token())
	}
	if diff := cmp.Diff(alice, m.User()); diff != "" {
		t.Errorf("User() mismatch (-want +got):\n%s", diff)
	}
}

func TestHydrateRejectedTokenIsDeleted(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, "revoked")

	auth := &fakeAuth{meFn: func(context.Context, string) (*api.User, error) {
		return nil, &api.SessionExpiredError{Op: "me", Status: 401}
	}}
	m, _ := newTestManager(t, auth, storage)
	m.Hydrate(ctx)

	if m.Status() != StatusAnonymous {
		t.Fatalf("Status() = %v, want anonymous", m.Status())
	}
	if v, _ := storage.Get(ctx, TokenKey); v != "" {
		t.Errorf("persisted token = %q, want deleted", v)
	}
}

func TestHydrateNetworkFailureKeepsToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, "maybe-good")

	auth := &fakeAuth{meFn: func(context.Context, string) (*api.User, error) {
		return nil, &api.NetworkError{Op: "me", Err: errors.New("connection refused")}
	}}
	m, _ := newTestManager(t, auth, storage)
	m.Hydrate(ctx)

	if m.Status() != StatusAnonymous {
		t.Fatalf("Status() = %v, want anonymous", m.Status())
	}
	if v, _ := storage.Get(ctx, TokenKey); v != "maybe-good" {
		t.Errorf("persisted token = %q, want kept", v)
	}
}

func TestHydrateExpiredJWTSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, signedToken(t, now.Add(-time.Minute)))

	auth := &fakeAuth{meFn: func(context.Context, string) (*api.User, error) {
		t.Error("Me should not be called for an expired token")
		return nil, nil
	}}
	m := NewManager(auth, storage, WithClock(func() time.Time { return now }))
	m.Hydrate(ctx)

	if m.Status() != StatusAnonymous {
		t.Fatalf("Status() = %v, want anonymous", m.Status())
	}
	if storage.Len() != 0 {
		t.Error("expired token was not deleted")
	}
}

func TestHydrateUnexpiredJWTCallsBackend(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, signedToken(t, now.Add(time.Hour)))

	auth := &fakeAuth{meFn: func(context.Context, string) (*api.User, error) { return alice, nil }}
	m := NewManager(auth, storage, WithClock(func() time.Time { return now }))
	m.Hydrate(ctx)

	if auth.meCalls != 1 {
		t.Errorf("Me called %d times, want 1", auth.meCalls)
	}
	if !m.IsAuthenticated() {
		t.Error("IsAuthenticated() = false")
	}
}

func TestHydrateRunsOnce(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, "tok")

	auth := &fakeAuth{meFn: func(context.Context, string) (*api.User, error) { return alice, nil }}
	m, _ := newTestManager(t, auth, storage)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Hydrate(ctx)
		}()
	}
	wg.Wait()

	if auth.meCalls != 1 {
		t.Errorf("Me called %d times, want 1", auth.meCalls)
	}
}

func TestHydrateStorageErrorIsAnonymous(t *testing.T) {
	storage := NewMemoryStorage()
	_ = storage.Close()

	m, _ := newTestManager(t, &fakeAuth{}, storage)
	m.Hydrate(context.Background())

	if m.Status() != StatusAnonymous {
		t.Fatalf("Status() = %v, want anonymous", m.Status())
	}
}

func TestLoginDuringHydrationWins(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, TokenKey, "old-token")

	release := make(chan struct{})
	entered := make(chan struct{})
	bob := &api.User{UserID: "u2", Name: "Bob"}
	auth := &fakeAuth{
		meFn: func(context.Context, string) (*api.User, error) {
			close(entered)
			<-release
			return alice, nil
		},
		loginFn: func(string, string) (*api.AuthResult, error) {
			return &api.AuthResult{Token: "new-token", User: bob}, nil
		},
	}
	m, _ := newTestManager(t, auth, storage)

	done := make(chan struct{})
	go func() {
		m.Hydrate(ctx)
		close(done)
	}()

	<-entered
	if err := m.Login(ctx, "bob@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	close(release)
	<-done

	if m.Token() != "new-token" {
		t.Errorf("Token() = %q, want new-token", m.Token())
	}
	if got := m.User().UserID; got != "u2" {
		t.Errorf("User().UserID = %q, want u2", got)
	}
	if v, _ := storage.Get(ctx, TokenKey); v != "new-token" {
		t.Errorf("persisted token = %q, want new-token", v)
	}
}

func TestWait(t *testing.T) {
	m, _ := newTestManager(t, &fakeAuth{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait before hydration = %v, want deadline exceeded", err)
	}

	m.Hydrate(context.Background())
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after hydration = %v", err)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	auth := &fakeAuth{loginFn: func(email, password string) (*api.AuthResult, error) {
		return &api.AuthResult{Token: "tok-1", User: alice}, nil
	}}
	m, pub := newTestManager(t, auth, storage)
	m.Hydrate(ctx)

	if err := m.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if m.Status() != StatusAuthenticated {
		t.Errorf("Status() = %v, want authenticated", m.Status())
	}
	if v, _ := storage.Get(ctx, TokenKey); v != "tok-1" {
		t.Errorf("persisted token = %q, want tok-1", v)
	}
	if pub.count(bus.SessionChanged) != 2 {
		t.Errorf("sessionChanged published %d times, want 2", pub.count(bus.SessionChanged))
	}
}

func TestLoginFailureKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "backend message",
			err:     &api.AuthenticationError{Status: 401, Message: "Invalid credentials"},
			wantMsg: "Invalid credentials",
		},
		{
			name:    "no message",
			err:     &api.AuthenticationError{Status: 500},
			wantMsg: "Login failed",
		},
		{
			name:    "network",
			err:     &api.NetworkError{Op: "login", Err: errors.New("dial tcp: refused")},
			wantMsg: "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			auth := &fakeAuth{loginFn: func(string, string) (*api.AuthResult, error) { return nil, tt.err }}
			m, pub := newTestManager(t, auth, NewMemoryStorage())
			m.Hydrate(ctx)

			err := m.Login(ctx, "a@b.c", "wrong")
			var ae *api.AuthenticationError
			if !errors.As(err, &ae) {
				t.Fatalf("Login error = %T %v, want *api.AuthenticationError", err, err)
			}
			if ae.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", ae.Message, tt.wantMsg)
			}
			if m.Status() != StatusAnonymous {
				t.Errorf("Status() = %v, want anonymous", m.Status())
			}
			if pub.count(bus.SessionChanged) != 1 {
				t.Errorf("sessionChanged published on failed login")
			}
		})
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{signupFn: func(name, email, password string) (*api.AuthResult, error) {
		if name != "Alice" {
			t.Errorf("name = %q", name)
		}
		return &api.AuthResult{Token: "tok-s", User: alice}, nil
	}}
	m, _ := newTestManager(t, auth, nil)
	if err := m.Signup(ctx, "Alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after signup")
	}
}

func TestSignupMissingTokenFails(t *testing.T) {
	auth := &fakeAuth{signupFn: func(string, string, string) (*api.AuthResult, error) {
		return &api.AuthResult{User: alice}, nil
	}}
	m, _ := newTestManager(t, auth, nil)
	err := m.Signup(context.Background(), "Alice", "a@b.c", "pw")
	if got := api.Message(err, ""); got != "Signup failed" {
		t.Errorf("Message = %q, want Signup failed", got)
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	auth := &fakeAuth{
		loginFn: func(string, string) (*api.AuthResult, error) {
			return &api.AuthResult{Token: "tok-1", User: alice}, nil
		},
		logoutFn: func(string) error { return errors.New("backend down") },
	}
	m, pub := newTestManager(t, auth, storage)
	m.Hydrate(ctx)
	_ = m.Login(ctx, "a", "b")

	m.Logout(ctx)

	if m.Status() != StatusAnonymous {
		t.Errorf("Status() = %v, want anonymous", m.Status())
	}
	if storage.Len() != 0 {
		t.Error("persisted token not deleted")
	}
	if diff := cmp.Diff([]string{"tok-1"}, auth.logoutTokens); diff != "" {
		t.Errorf("backend logout tokens (-want +got):\n%s", diff)
	}
	if pub.count(bus.SessionChanged) != 3 {
		t.Errorf("sessionChanged published %d times, want 3", pub.count(bus.SessionChanged))
	}
}

func TestLogoutAnonymousSkipsBackend(t *testing.T) {
	auth := &fakeAuth{}
	m, _ := newTestManager(t, auth, nil)
	m.Hydrate(context.Background())
	m.Logout(context.Background())
	if len(auth.logoutTokens) != 0 {
		t.Errorf("backend logout called with %v", auth.logoutTokens)
	}
}

func TestExpire(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	auth := &fakeAuth{loginFn: func(string, string) (*api.AuthResult, error) {
		return &api.AuthResult{Token: "tok-1", User: alice}, nil
	}}
	m, pub := newTestManager(t, auth, storage)
	m.Hydrate(ctx)
	_ = m.Login(ctx, "a", "b")
	before := pub.count(bus.SessionChanged)

	m.HandleUnauthorized(&api.SessionExpiredError{Op: "get_cart", Status: 401})
	m.Expire()

	if m.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after Expire")
	}
	if storage.Len() != 0 {
		t.Error("persisted token not deleted")
	}
	if len(auth.logoutTokens) != 0 {
		t.Error("Expire called the backend")
	}
	if got := pub.count(bus.SessionChanged) - before; got != 1 {
		t.Errorf("sessionChanged published %d times, want 1", got)
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	updated := &api.User{UserID: "u1", Name: "Alice B", Email: "alice@example.com"}
	auth := &fakeAuth{
		loginFn: func(string, string) (*api.AuthResult, error) {
			return &api.AuthResult{Token: "tok-1", User: alice}, nil
		},
		meFn: func(context.Context, string) (*api.User, error) { return updated, nil },
	}
	m, _ := newTestManager(t, auth, nil)
	_ = m.Login(ctx, "a", "b")

	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if diff := cmp.Diff(updated, m.User()); diff != "" {
		t.Errorf("User() mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshAnonymous(t *testing.T) {
	m, _ := newTestManager(t, &fakeAuth{}, nil)
	if err := m.Refresh(context.Background()); !errors.Is(err, api.ErrAnonymous) {
		t.Fatalf("Refresh = %v, want ErrAnonymous", err)
	}
}

func TestRefreshRejectedExpires(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{
		loginFn: func(string, string) (*api.AuthResult, error) {
			return &api.AuthResult{Token: "tok-1", User: alice}, nil
		},
		meFn: func(context.Context, string) (*api.User, error) {
			return nil, &api.SessionExpiredError{Op: "me", Status: 401}
		},
	}
	m, _ := newTestManager(t, auth, nil)
	_ = m.Login(ctx, "a", "b")

	if err := m.Refresh(ctx); !api.IsSessionExpired(err) {
		t.Fatalf("Refresh = %v, want session expired", err)
	}
	if m.IsAuthenticated() {
		t.Error("session survived a rejected refresh")
	}
}

func TestUserReturnsCopy(t *testing.T) {
	auth := &fakeAuth{loginFn: func(string, string) (*api.AuthResult, error) {
		return &api.AuthResult{Token: "t", User: &api.User{UserID: "u1", Name: "Alice"}}, nil
	}}
	m, _ := newTestManager(t, auth, nil)
	_ = m.Login(context.Background(), "a", "b")

	u := m.User()
	u.Name = "Mallory"
	if m.User().Name != "Alice" {
		t.Error("mutating User() result changed session state")
	}
}

func TestManagerImplementsTokenSource(t *testing.T) {
	var _ api.TokenSource = (*Manager)(nil)
	var _ Authenticator = (*api.Client)(nil)
}
