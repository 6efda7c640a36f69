package views

import (
	"context"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/session"
	"github.com/nexora-dev/storefront/pkg/snapshot"
)

// Header shows the session state and the cart badge. It re-reads the cart
// whenever the cart or the session changes.
type Header struct {
	page
	cart *snapshot.Snapshot[*api.Cart]
}

// NewHeader creates an unmounted header.
func NewHeader(d Deps) *Header {
	h := &Header{}
	h.init(d)
	h.cart = track(&h.page, snapshot.New[*api.Cart]())
	return h
}

// Mount subscribes to cart and session changes and loads the badge.
func (h *Header) Mount(ctx context.Context) error {
	h.begin(ctx)
	h.on(bus.CartChanged, h.refresh)
	h.on(bus.SessionChanged, h.refresh)
	return h.Load(ctx)
}

func (h *Header) refresh() {
	if err := h.Load(h.context()); err != nil {
		h.deps.logger().Debug("header: cart refresh failed", "error", err)
	}
}

// Load re-reads the cart. Anonymous sessions show an empty badge without a
// request.
func (h *Header) Load(ctx context.Context) error {
	if !h.authenticated() {
		h.cart.Replace(&api.Cart{})
		return nil
	}
	return h.cart.Load(ctx, h.deps.API.Cart)
}

// CartCount is the number on the cart badge.
func (h *Header) CartCount() int {
	c := h.cart.Data()
	if c == nil {
		return 0
	}
	return c.ItemCount()
}

// Status returns the session status.
func (h *Header) Status() session.Status {
	return h.deps.Session.Status()
}

// UserName returns the signed-in user's name, or "".
func (h *Header) UserName() string {
	if u := h.deps.Session.User(); u != nil {
		return u.Name
	}
	return ""
}

// Logout signs the user out.
func (h *Header) Logout(ctx context.Context) {
	h.deps.Session.Logout(ctx)
}
