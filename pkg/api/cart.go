package api

import (
	"context"
	"net/http"
	"net/url"
)

type cartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Cart fetches the current user's cart.
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, call{
		op:     "get_cart",
		method: http.MethodGet,
		path:   "/api/cart",
		kind:   kindRead,
	})
}

// AddToCart adds quantity units of a product and returns the new cart.
// A quantity below one is sent as one.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		quantity = 1
	}
	return c.cartCall(ctx, call{
		op:     "add_to_cart",
		method: http.MethodPost,
		path:   "/api/cart",
		body:   cartLine{ProductID: productID, Quantity: quantity},
		kind:   kindMutation,
	})
}

// UpdateCartItem sets the quantity of a line and returns the new cart.
func (c *Client) UpdateCartItem(ctx context.Context, productID string, quantity int) (*Cart, error) {
	return c.cartCall(ctx, call{
		op:     "update_cart",
		method: http.MethodPut,
		path:   "/api/cart",
		body:   cartLine{ProductID: productID, Quantity: quantity},
		kind:   kindMutation,
	})
}

// RemoveFromCart deletes a line and returns the new cart.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) (*Cart, error) {
	return c.cartCall(ctx, call{
		op:     "remove_from_cart",
		method: http.MethodDelete,
		path:   "/api/cart/" + url.PathEscape(productID),
		kind:   kindMutation,
	})
}

// ClearCart empties the cart and returns it.
func (c *Client) ClearCart(ctx context.Context) (*Cart, error) {
	return c.cartCall(ctx, call{
		op:     "clear_cart",
		method: http.MethodDelete,
		path:   "/api/cart/clear",
		kind:   kindMutation,
	})
}

func (c *Client) cartCall(ctx context.Context, cl call) (*Cart, error) {
	cl.auth = authRequired
	var cart Cart
	if err := c.do(ctx, cl, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return &cart, nil
}
