package views_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/snapshot"
	"github.com/nexora-dev/storefront/pkg/toast"
	"github.com/nexora-dev/storefront/pkg/views"
)

func TestCartPageEditsAndHeaderFollows(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.fillCart(t, "p1", 2)
	ctx := context.Background()

	header := views.NewHeader(f.deps)
	if err := header.Mount(ctx); err != nil {
		t.Fatalf("header Mount: %v", err)
	}
	defer header.Unmount()
	if header.CartCount() != 2 {
		t.Fatalf("badge = %d, want 2", header.CartCount())
	}

	page := views.NewCartPage(f.deps)
	d, err := page.Mount(ctx)
	if err != nil || d != views.Render {
		t.Fatalf("Mount = %v, %v", d, err)
	}
	defer page.Unmount()
	if page.State() != snapshot.Ready || len(page.Cart().Items) != 1 {
		t.Fatalf("cart not loaded: %v %+v", page.State(), page.Cart())
	}

	before := f.srv.Calls("GET /api/cart")
	if err := page.UpdateQuantity(ctx, "p1", 3); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got := page.Cart().Total; got != 599.97 {
		t.Errorf("total = %v, want backend total 599.97", got)
	}
	if header.CartCount() != 3 {
		t.Errorf("badge = %d after update, want 3", header.CartCount())
	}
	// The header re-fetches; the cart page uses the mutation response.
	if got := f.srv.Calls("GET /api/cart") - before; got != 1 {
		t.Errorf("GET /api/cart called %d times after update, want 1", got)
	}

	if err := page.UpdateQuantity(ctx, "p1", 0); err != nil {
		t.Fatalf("UpdateQuantity(0): %v", err)
	}
	if len(page.Cart().Items) != 0 || header.CartCount() != 0 {
		t.Errorf("zero quantity did not remove the line: %+v", page.Cart())
	}
	if f.srv.Calls("DELETE /api/cart/{productId}") != 1 {
		t.Error("zero quantity should remove through DELETE")
	}
}

func TestCartPageClear(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.fillCart(t, "p3", 1)
	f.fillCart(t, "p5", 2)

	page := views.NewCartPage(f.deps)
	if _, err := page.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer page.Unmount()

	published := 0
	f.bus.Subscribe(bus.CartChanged, func() { published++ })

	if err := page.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(page.Cart().Items) != 0 || page.Cart().Total != 0 {
		t.Errorf("cart after clear = %+v", page.Cart())
	}
	if published != 1 {
		t.Errorf("cartChanged published %d times, want 1", published)
	}
}

func TestCartPageFailureKeepsSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		message string
		run     func(context.Context, *views.CartPage) error
		route   string
		want    string
	}{
		{"update with backend message", "Insufficient stock", func(ctx context.Context, p *views.CartPage) error {
			return p.UpdateQuantity(ctx, "p4", 2)
		}, "PUT /api/cart", "Insufficient stock"},
		{"update fallback", "", func(ctx context.Context, p *views.CartPage) error {
			return p.UpdateQuantity(ctx, "p4", 2)
		}, "PUT /api/cart", "Failed to update cart"},
		{"remove fallback", "", func(ctx context.Context, p *views.CartPage) error {
			return p.Remove(ctx, "p4")
		}, "DELETE /api/cart/{productId}", "Failed to remove item"},
		{"clear fallback", "", func(ctx context.Context, p *views.CartPage) error {
			return p.Clear(ctx)
		}, "DELETE /api/cart/clear", "Failed to clear cart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.signIn(t)
			f.fillCart(t, "p4", 1)

			page := views.NewCartPage(f.deps)
			if _, err := page.Mount(context.Background()); err != nil {
				t.Fatal(err)
			}
			defer page.Unmount()
			before := page.Cart()

			published := 0
			f.bus.Subscribe(bus.CartChanged, func() { published++ })

			f.srv.FailNext(tt.route, http.StatusBadRequest, tt.message)
			if err := tt.run(context.Background(), page); err == nil {
				t.Fatal("expected error")
			}
			if page.Cart() != before {
				t.Error("snapshot replaced after a failed mutation")
			}
			if published != 0 {
				t.Errorf("cartChanged published %d times after failure", published)
			}
			got := f.lastToast(t)
			if got.Type != toast.TypeError || got.Message != tt.want {
				t.Errorf("toast = %s %q, want error %q", got.Type, got.Message, tt.want)
			}
		})
	}
}

func TestCartPageExpiredSessionIsSilent(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.fillCart(t, "p1", 1)

	page := views.NewCartPage(f.deps)
	if _, err := page.Mount(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer page.Unmount()

	f.srv.Revoke(f.deps.Session.Token())
	err := page.UpdateQuantity(context.Background(), "p1", 2)
	if err == nil {
		t.Fatal("expected session expired error")
	}
	if f.toasts.Len() != 0 {
		t.Errorf("expired session showed %d toasts", f.toasts.Len())
	}
	if f.deps.Session.IsAuthenticated() {
		t.Error("session still authenticated after a 401")
	}
	if page.Redirect() != views.LoginPath {
		t.Errorf("Redirect() = %q, want login after expiry", page.Redirect())
	}
}

func TestUnmountDropsSubscriptionsAndLateResults(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	ctx := context.Background()

	header := views.NewHeader(f.deps)
	if err := header.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	if header.Subscriptions() != 2 {
		t.Fatalf("header holds %d subscriptions, want 2", header.Subscriptions())
	}
	header.Unmount()

	if n := f.bus.Subscribers(bus.CartChanged) + f.bus.Subscribers(bus.SessionChanged); n != 0 {
		t.Errorf("%d subscriptions leaked after Unmount", n)
	}
	before := f.srv.Calls("GET /api/cart")
	f.bus.Publish(bus.CartChanged)
	if f.srv.Calls("GET /api/cart") != before {
		t.Error("unmounted header re-fetched the cart")
	}

	// A load finishing after unmount is dropped.
	f.fillCart(t, "p2", 1)
	_ = header.Load(ctx)
	if header.CartCount() != 0 {
		t.Errorf("disposed header accepted a late result: badge %d", header.CartCount())
	}
}

func TestHeaderFollowsSession(t *testing.T) {
	f := newFixture(t)
	f.srv.AddUser("Alice", "alice@example.com", "secret1")
	ctx := context.Background()

	header := views.NewHeader(f.deps)
	if err := header.Mount(ctx); err != nil {
		t.Fatal(err)
	}
	defer header.Unmount()
	if header.CartCount() != 0 || f.srv.Calls("GET /api/cart") != 0 {
		t.Fatal("anonymous header fetched the cart")
	}

	if err := f.deps.Session.Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	if f.srv.Calls("GET /api/cart") != 1 {
		t.Error("login did not refresh the header")
	}
	if header.UserName() != "Alice" {
		t.Errorf("UserName() = %q", header.UserName())
	}

	f.fillCart(t, "p3", 4)
	f.bus.Publish(bus.CartChanged)
	if header.CartCount() != 4 {
		t.Errorf("badge = %d, want 4", header.CartCount())
	}

	header.Logout(ctx)
	if header.CartCount() != 0 {
		t.Errorf("badge = %d after logout, want 0", header.CartCount())
	}
}

func TestCheckoutPage(t *testing.T) {
	t.Run("empty cart redirects to cart", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		page := views.NewCheckoutPage(f.deps)
		d, err := page.Mount(context.Background())
		if err != nil || d != views.Render {
			t.Fatalf("Mount = %v, %v", d, err)
		}
		defer page.Unmount()
		if page.Redirect() != views.CartPath {
			t.Errorf("Redirect() = %q, want %q", page.Redirect(), views.CartPath)
		}
	})

	t.Run("places order", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.fillCart(t, "p5", 2)
		ctx := context.Background()

		header := views.NewHeader(f.deps)
		if err := header.Mount(ctx); err != nil {
			t.Fatal(err)
		}
		defer header.Unmount()

		page := views.NewCheckoutPage(f.deps)
		if _, err := page.Mount(ctx); err != nil {
			t.Fatal(err)
		}
		defer page.Unmount()
		if page.Name != "Alice" || page.Email != "alice@example.com" {
			t.Errorf("form not prefilled: %q %q", page.Name, page.Email)
		}
		if page.Redirect() != "" {
			t.Errorf("unexpected redirect %q", page.Redirect())
		}

		order, err := page.PlaceOrder(ctx)
		if err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
		if order.Status != "processing" || order.Total != 97.5 {
			t.Errorf("order = %+v", order)
		}
		if page.Order() == nil || page.Order().OrderID != order.OrderID {
			t.Error("order snapshot not replaced")
		}
		if header.CartCount() != 0 {
			t.Errorf("badge = %d after checkout, want 0", header.CartCount())
		}
		if got := f.lastToast(t); got.Type != toast.TypeSuccess {
			t.Errorf("toast = %+v, want success", got)
		}
	})

	t.Run("failure uses fallback", func(t *testing.T) {
		f := newFixture(t)
		f.signIn(t)
		f.fillCart(t, "p5", 1)
		page := views.NewCheckoutPage(f.deps)
		if _, err := page.Mount(context.Background()); err != nil {
			t.Fatal(err)
		}
		defer page.Unmount()

		f.srv.FailNext("POST /api/checkout", http.StatusInternalServerError, "")
		if _, err := page.PlaceOrder(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if got := f.lastToast(t).Message; got != "Checkout failed" {
			t.Errorf("toast = %q, want Checkout failed", got)
		}
		if page.Order() != nil {
			t.Error("order set after failure")
		}
	})
}

func TestTwoHeadersRefetchOnce(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.fillCart(t, "p2", 1)
	ctx := context.Background()

	var headers []*views.Header
	for i := 0; i < 2; i++ {
		h := views.NewHeader(f.deps)
		if err := h.Mount(ctx); err != nil {
			t.Fatalf("header %d Mount: %v", i, err)
		}
		defer h.Unmount()
		headers = append(headers, h)
	}

	// Change the cart behind the headers' backs, then announce it once.
	f.fillCart(t, "p2", 2)
	before := f.srv.Calls("GET /api/cart")
	f.bus.Publish(bus.CartChanged)

	if got := f.srv.Calls("GET /api/cart") - before; got != 2 {
		t.Errorf("GET /api/cart called %d times after one publish, want 2", got)
	}
	for i, h := range headers {
		if h.CartCount() != 3 {
			t.Errorf("header %d badge = %d, want 3", i, h.CartCount())
		}
	}
}
