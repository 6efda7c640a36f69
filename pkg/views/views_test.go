package views_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/session"
	"github.com/nexora-dev/storefront/pkg/snapshot"
	"github.com/nexora-dev/storefront/pkg/storefronttest"
	"github.com/nexora-dev/storefront/pkg/toast"
	"github.com/nexora-dev/storefront/pkg/views"
)

type fixture struct {
	srv    *storefronttest.Server
	bus    *bus.Bus
	toasts *toast.Queue
	deps   views.Deps
}

func newFixture(t *testing.T, opts ...storefronttest.Option) *fixture {
	t.Helper()
	srv := storefronttest.Start(t, opts...)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	b := bus.New()
	q := toast.NewQueue(toast.WithPublisher(b))
	mgr := session.NewManager(client, session.NewMemoryStorage(), session.WithPublisher(b))
	client.SetTokenSource(mgr)
	client.OnUnauthorized(mgr.HandleUnauthorized)

	f := &fixture{
		srv:    srv,
		bus:    b,
		toasts: q,
		deps: views.Deps{
			API:        client,
			Session:    mgr,
			Bus:        b,
			Reconciler: snapshot.NewReconciler(b, q),
			Toasts:     q,
		},
	}
	mgr.Hydrate(context.Background())
	return f
}

func (f *fixture) signIn(t *testing.T) api.User {
	t.Helper()
	u := f.srv.AddUser("Alice", "alice@example.com", "secret1")
	if err := f.deps.Session.Login(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return u
}

func (f *fixture) lastToast(t *testing.T) toast.Toast {
	t.Helper()
	active := f.toasts.Active()
	if len(active) == 0 {
		t.Fatal("no toast shown")
	}
	return active[len(active)-1]
}

func (f *fixture) fillCart(t *testing.T, productID string, qty int) {
	t.Helper()
	if _, err := f.deps.API.AddToCart(context.Background(), productID, qty); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
}

func TestGuard(t *testing.T) {
	tests := []struct {
		status session.Status
		want   views.Decision
	}{
		{session.StatusLoading, views.Wait},
		{session.StatusAuthenticated, views.Render},
		{session.StatusAnonymous, views.RedirectLogin},
	}
	for _, tt := range tests {
		if got := views.Guard(tt.status); got != tt.want {
			t.Errorf("Guard(%v) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProtectedViewsRedirectAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	type mounter interface {
		Mount(context.Context) (views.Decision, error)
		Redirect() string
		Subscriptions() int
		Unmount()
	}
	pages := map[string]mounter{
		"cart":     views.NewCartPage(f.deps),
		"checkout": views.NewCheckoutPage(f.deps),
		"wishlist": views.NewWishlistPage(f.deps),
		"orders":   views.NewOrdersPage(f.deps),
	}
	for name, p := range pages {
		d, err := p.Mount(ctx)
		if err != nil {
			t.Fatalf("%s: Mount: %v", name, err)
		}
		if d != views.RedirectLogin || p.Redirect() != views.LoginPath {
			t.Errorf("%s: decision %v redirect %q, want login redirect", name, d, p.Redirect())
		}
		if p.Subscriptions() != 0 {
			t.Errorf("%s: anonymous view subscribed %d handlers", name, p.Subscriptions())
		}
		p.Unmount()
	}

	for _, route := range []string{"GET /api/cart", "GET /api/wishlist", "GET /api/orders"} {
		if n := f.srv.Calls(route); n != 0 {
			t.Errorf("%s called %d times for an anonymous session", route, n)
		}
	}
}

func TestMountWaitsForHydration(t *testing.T) {
	srv := storefronttest.Start(t)
	client, _ := api.New(srv.URL)
	mgr := session.NewManager(client, nil)
	page := views.NewCartPage(views.Deps{API: client, Session: mgr})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := page.Mount(ctx)
	if !errors.Is(err, context.Canceled) || d != views.Wait {
		t.Fatalf("Mount before hydration = %v, %v; want Wait, context.Canceled", d, err)
	}
	if page.Redirect() != "" {
		t.Errorf("redirected while session was loading: %q", page.Redirect())
	}
}
