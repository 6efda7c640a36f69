package views

import (
	"context"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/snapshot"
)

// WishlistPage lists saved products.
type WishlistPage struct {
	page
	products *snapshot.Snapshot[[]api.Product]
	actions  productActions
}

// NewWishlistPage creates an unmounted wishlist page.
func NewWishlistPage(d Deps) *WishlistPage {
	w := &WishlistPage{}
	w.init(d)
	w.products = track(&w.page, snapshot.New[[]api.Product]())
	w.actions = newProductActions(&w.page)
	return w
}

// Mount loads the wishlist when authenticated. Wishlist changes made by
// other views trigger a reload.
func (w *WishlistPage) Mount(ctx context.Context) (Decision, error) {
	d, err := w.enter(ctx)
	if err != nil || d != Render {
		return d, err
	}
	w.onOther(bus.WishlistChanged, func() {
		if err := w.load(w.context()); err != nil {
			w.deps.logger().Debug("wishlist: reload failed", "error", err)
		}
	})
	return d, w.load(ctx)
}

func (w *WishlistPage) load(ctx context.Context) error {
	return w.products.Load(ctx, w.deps.API.Wishlist)
}

// Products returns the wishlisted products.
func (w *WishlistPage) Products() []api.Product {
	return w.products.Data()
}

// State returns the load state of the list.
func (w *WishlistPage) State() snapshot.State {
	return w.products.State()
}

// Remove drops a product from the wishlist.
func (w *WishlistPage) Remove(ctx context.Context, productID string) error {
	return w.own(func() error {
		_, err := snapshot.Mutate(ctx, w.deps.Reconciler, w.products, snapshot.Action[[]api.Product]{
			Name:     "remove_from_wishlist",
			Event:    bus.WishlistChanged,
			Success:  msgRemovedWishlist,
			Fallback: "Failed to remove from wishlist",
			Call: func(ctx context.Context) ([]api.Product, error) {
				return w.deps.API.RemoveFromWishlist(ctx, productID)
			},
		})
		return err
	})
}

// AddToCart puts one unit of a saved product in the cart.
func (w *WishlistPage) AddToCart(ctx context.Context, productID string) error {
	return w.actions.addToCart(ctx, productID, 1, msgAddedToCart)
}
