package views

import (
	"context"
	"strings"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/snapshot"
)

// CartPage lists the cart and edits it. Every edit replaces the page's
// snapshot with the cart the backend returns and publishes CartChanged.
type CartPage struct {
	page
	cart *snapshot.Snapshot[*api.Cart]
}

// NewCartPage creates an unmounted cart page.
func NewCartPage(d Deps) *CartPage {
	c := &CartPage{}
	c.init(d)
	c.cart = track(&c.page, snapshot.New[*api.Cart]())
	return c
}

// Mount waits for the session and loads the cart when authenticated.
func (c *CartPage) Mount(ctx context.Context) (Decision, error) {
	d, err := c.enter(ctx)
	if err != nil || d != Render {
		return d, err
	}
	c.on(bus.SessionChanged, c.sessionChanged)
	return d, c.cart.Load(ctx, c.deps.API.Cart)
}

func (c *CartPage) sessionChanged() {
	if !c.authenticated() {
		c.cart.Replace(&api.Cart{})
		c.redirectTo(LoginPath)
	}
}

// Cart returns the current cart, or nil before the first load.
func (c *CartPage) Cart() *api.Cart {
	return c.cart.Data()
}

// State returns the load state of the cart.
func (c *CartPage) State() snapshot.State {
	return c.cart.State()
}

// UpdateQuantity sets the quantity of a line. Quantities below one remove
// it.
func (c *CartPage) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return c.Remove(ctx, productID)
	}
	_, err := snapshot.Mutate(ctx, c.deps.Reconciler, c.cart, snapshot.Action[*api.Cart]{
		Name:     "update_cart",
		Event:    bus.CartChanged,
		Fallback: "Failed to update cart",
		Call: func(ctx context.Context) (*api.Cart, error) {
			return c.deps.API.UpdateCartItem(ctx, productID, quantity)
		},
	})
	return err
}

// Remove drops a line from the cart.
func (c *CartPage) Remove(ctx context.Context, productID string) error {
	_, err := snapshot.Mutate(ctx, c.deps.Reconciler, c.cart, snapshot.Action[*api.Cart]{
		Name:     "remove_from_cart",
		Event:    bus.CartChanged,
		Fallback: "Failed to remove item",
		Call: func(ctx context.Context) (*api.Cart, error) {
			return c.deps.API.RemoveFromCart(ctx, productID)
		},
	})
	return err
}

// Clear empties the cart.
func (c *CartPage) Clear(ctx context.Context) error {
	_, err := snapshot.Mutate(ctx, c.deps.Reconciler, c.cart, snapshot.Action[*api.Cart]{
		Name:     "clear_cart",
		Event:    bus.CartChanged,
		Fallback: "Failed to clear cart",
		Call:     c.deps.API.ClearCart,
	})
	return err
}

// Checkout navigates to the checkout page.
func (c *CartPage) Checkout() {
	c.redirectTo("/checkout")
}

// CheckoutPage collects the customer's name and email and places the
// order.
type CheckoutPage struct {
	page
	cart  *snapshot.Snapshot[*api.Cart]
	order *snapshot.Snapshot[*api.Order]

	Name  string
	Email string
}

// NewCheckoutPage creates an unmounted checkout page.
func NewCheckoutPage(d Deps) *CheckoutPage {
	c := &CheckoutPage{}
	c.init(d)
	c.cart = track(&c.page, snapshot.New[*api.Cart]())
	c.order = track(&c.page, snapshot.New[*api.Order]())
	return c
}

// Mount loads the cart and prefills the form from the profile. An empty
// cart redirects to the cart page.
func (c *CheckoutPage) Mount(ctx context.Context) (Decision, error) {
	d, err := c.enter(ctx)
	if err != nil || d != Render {
		return d, err
	}
	if u := c.deps.Session.User(); u != nil {
		c.Name = u.Name
		c.Email = u.Email
	}
	if err := c.cart.Load(ctx, c.deps.API.Cart); err != nil {
		return d, err
	}
	if cart := c.cart.Data(); cart == nil || len(cart.Items) == 0 {
		c.redirectTo(CartPath)
	}
	return d, nil
}

// Cart returns the cart being checked out.
func (c *CheckoutPage) Cart() *api.Cart {
	return c.cart.Data()
}

// Order returns the placed order, or nil.
func (c *CheckoutPage) Order() *api.Order {
	return c.order.Data()
}

// PlaceOrder submits the cart. On success the backend has emptied the cart
// and CartChanged is published.
func (c *CheckoutPage) PlaceOrder(ctx context.Context) (*api.Order, error) {
	cart := c.cart.Data()
	var items []api.CartItem
	if cart != nil {
		items = cart.Items
	}
	name, email := strings.TrimSpace(c.Name), strings.TrimSpace(c.Email)
	return snapshot.Mutate(ctx, c.deps.Reconciler, c.order, snapshot.Action[*api.Order]{
		Name:     "checkout",
		Event:    bus.CartChanged,
		Success:  "Order placed successfully!",
		Fallback: "Checkout failed",
		Call: func(ctx context.Context) (*api.Order, error) {
			return c.deps.API.Checkout(ctx, name, email, items)
		},
	})
}
