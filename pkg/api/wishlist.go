package api

import (
	"context"
	"net/http"
	"net/url"
)

// Wishlist lists the products on the user's wishlist.
func (c *Client) Wishlist(ctx context.Context) ([]Product, error) {
	return c.wishlistCall(ctx, call{
		op:     "wishlist",
		method: http.MethodGet,
		path:   "/api/wishlist",
		kind:   kindRead,
	})
}

// AddToWishlist saves a product and returns the updated wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) ([]Product, error) {
	return c.wishlistCall(ctx, call{
		op:     "add_to_wishlist",
		method: http.MethodPost,
		path:   "/api/wishlist",
		body:   map[string]string{"productId": productID},
		kind:   kindMutation,
	})
}

// RemoveFromWishlist drops a product and returns the updated wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) ([]Product, error) {
	return c.wishlistCall(ctx, call{
		op:     "remove_from_wishlist",
		method: http.MethodDelete,
		path:   "/api/wishlist",
		query:  url.Values{"productId": {productID}},
		kind:   kindMutation,
	})
}

func (c *Client) wishlistCall(ctx context.Context, cl call) ([]Product, error) {
	cl.auth = authRequired
	var out []Product
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

// ProductIDs returns the ids of products, in order.
func ProductIDs(products []Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
