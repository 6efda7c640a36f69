package views

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/session"
	"github.com/nexora-dev/storefront/pkg/snapshot"
	"github.com/nexora-dev/storefront/pkg/toast"
)

// ErrAlreadyInWishlist is returned when a product is added to the wishlist
// twice.
var ErrAlreadyInWishlist = errors.New("views: product already in wishlist")

// Routes a view may redirect to.
const (
	LoginPath  = "/login"
	CartPath   = "/cart"
	ShopPath   = "/shop"
	OrdersPath = "/orders"
)

// Deps are the shared components every view reads from.
type Deps struct {
	API        *api.Client
	Session    *session.Manager
	Bus        *bus.Bus
	Reconciler *snapshot.Reconciler
	Toasts     *toast.Queue
	Logger     *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Decision is what a protected view does for a given session status.
type Decision int

const (
	Wait          Decision = iota // Hydration still running
	Render                        // Authenticated; fetch and show data
	RedirectLogin                 // Anonymous; send the user to the login page
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "unknown"
	}
}

// Guard maps a session status to what a protected view should do. Views
// must not redirect while the session is still loading.
func Guard(status session.Status) Decision {
	switch status {
	case session.StatusAuthenticated:
		return Render
	case session.StatusAnonymous:
		return RedirectLogin
	default:
		return Wait
	}
}

// disposer is implemented by every snapshot type.
type disposer interface {
	Dispose()
}

// page holds the lifecycle shared by all views: a context that is
// cancelled on unmount, the view's bus subscriptions and its snapshots.
type page struct {
	deps Deps

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	subs      bus.Group
	snapshots []disposer
	redirect  string
	mounted   bool
	muted     atomic.Int32
}

func (p *page) init(d Deps) {
	p.deps = d
	p.ctx, p.cancel = context.WithCancel(context.Background())
}

// begin binds the view to ctx. Bus-triggered reloads run under it.
func (p *page) begin(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.mounted = true
}

// enter waits for hydration, then applies Guard. An anonymous session
// records a redirect to the login page.
func (p *page) enter(ctx context.Context) (Decision, error) {
	p.begin(ctx)
	if err := p.deps.Session.Wait(ctx); err != nil {
		return Wait, err
	}
	d := Guard(p.deps.Session.Status())
	if d == RedirectLogin {
		p.redirectTo(LoginPath)
	}
	return d, nil
}

func (p *page) context() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

func (p *page) on(ev bus.Event, fn bus.Handler) {
	if p.deps.Bus == nil {
		return
	}
	p.subs.Add(p.deps.Bus.Subscribe(ev, fn))
}

// onOther subscribes fn but skips events the view publishes itself from
// inside own.
func (p *page) onOther(ev bus.Event, fn bus.Handler) {
	p.on(ev, func() {
		if p.muted.Load() > 0 {
			return
		}
		fn()
	})
}

func (p *page) own(fn func() error) error {
	p.muted.Add(1)
	defer p.muted.Add(-1)
	return fn()
}

func track[T any](p *page, s *snapshot.Snapshot[T]) *snapshot.Snapshot[T] {
	p.mu.Lock()
	p.snapshots = append(p.snapshots, s)
	p.mu.Unlock()
	return s
}

func (p *page) redirectTo(path string) {
	p.mu.Lock()
	p.redirect = path
	p.mu.Unlock()
}

// Redirect returns the path the view asked to navigate to, or "".
func (p *page) Redirect() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.redirect
}

// Mounted reports whether the view is between Mount and Unmount.
func (p *page) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}

// Unmount drops every subscription, disposes the view's snapshots and
// cancels in-flight requests. Responses that arrive later are ignored.
func (p *page) Unmount() {
	p.subs.Close()

	p.mu.Lock()
	snaps := p.snapshots
	cancel := p.cancel
	p.mounted = false
	p.mu.Unlock()

	for _, s := range snaps {
		s.Dispose()
	}
	if cancel != nil {
		cancel()
	}
}

// Subscriptions returns the number of live bus subscriptions the view
// holds.
func (p *page) Subscriptions() int {
	return p.subs.Len()
}

func (p *page) authenticated() bool {
	return p.deps.Session != nil && p.deps.Session.IsAuthenticated()
}

func (p *page) userID() string {
	if u := p.deps.Session.User(); u != nil {
		return u.UserID
	}
	return ""
}

// Messages shown by product actions shared across views.
const (
	msgLoginForCart     = "Please login to add items to cart"
	msgLoginForWishlist = "Please login to add items to wishlist"
	msgAlreadyWishlist  = "Already in wishlist!"
	msgAddedToCart      = "Added to cart!"
	msgAddedToWishlist  = "Added to wishlist!"
	msgRemovedWishlist  = "Removed from wishlist"
	failAddToCart       = "Failed to add to cart"
	failAddToWishlist   = "Failed to add to wishlist"
)

// productActions implements the add-to-cart and add-to-wishlist flows
// shared by the shop, product, search and wishlist views.
type productActions struct {
	p        *page
	wishlist *snapshot.Snapshot[[]string]
}

func newProductActions(p *page) productActions {
	return productActions{p: p, wishlist: track(p, snapshot.New[[]string]())}
}

// requireLogin shows message and redirects to the login page when the
// session is anonymous.
func (a productActions) requireLogin(message string) bool {
	if a.p.authenticated() {
		return true
	}
	a.p.deps.Reconciler.Warn(message)
	a.p.redirectTo(LoginPath)
	return false
}

func (a productActions) loadWishlistIDs(ctx context.Context) error {
	if !a.p.authenticated() {
		a.wishlist.Replace(nil)
		return nil
	}
	return a.wishlist.Load(ctx, func(ctx context.Context) ([]string, error) {
		products, err := a.p.deps.API.Wishlist(ctx)
		if err != nil {
			return nil, err
		}
		return api.ProductIDs(products), nil
	})
}

// InWishlist reports whether productID is on the loaded wishlist.
func (a productActions) InWishlist(productID string) bool {
	for _, id := range a.wishlist.Data() {
		if id == productID {
			return true
		}
	}
	return false
}

// WishlistIDs returns the ids of wishlisted products.
func (a productActions) WishlistIDs() []string {
	return append([]string(nil), a.wishlist.Data()...)
}

func (a productActions) addToCart(ctx context.Context, productID string, quantity int, success string) error {
	if !a.requireLogin(msgLoginForCart) {
		return api.ErrAnonymous
	}
	_, err := snapshot.Mutate[*api.Cart](ctx, a.p.deps.Reconciler, nil, snapshot.Action[*api.Cart]{
		Name:     "add_to_cart",
		Event:    bus.CartChanged,
		Success:  success,
		Fallback: failAddToCart,
		Call: func(ctx context.Context) (*api.Cart, error) {
			return a.p.deps.API.AddToCart(ctx, productID, quantity)
		},
	})
	return err
}

// AddToWishlist saves productID. Anonymous users are sent to the login
// page and products already on the list are rejected without a request.
func (a productActions) AddToWishlist(ctx context.Context, productID string) error {
	if !a.requireLogin(msgLoginForWishlist) {
		return api.ErrAnonymous
	}
	if a.InWishlist(productID) {
		a.p.deps.Reconciler.Warn(msgAlreadyWishlist)
		return ErrAlreadyInWishlist
	}
	_, err := snapshot.Mutate(ctx, a.p.deps.Reconciler, a.wishlist, snapshot.Action[[]string]{
		Name:     "add_to_wishlist",
		Event:    bus.WishlistChanged,
		Success:  msgAddedToWishlist,
		Fallback: failAddToWishlist,
		Call: func(ctx context.Context) ([]string, error) {
			products, err := a.p.deps.API.AddToWishlist(ctx, productID)
			if err != nil {
				return nil, err
			}
			return api.ProductIDs(products), nil
		},
	})
	return err
}
