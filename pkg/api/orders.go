package api

import (
	"context"
	"net/http"
	"net/url"
)

type checkoutRequest struct {
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	CartItems     []CartItem `json:"cartItems"`
}

// Checkout places an order for items. The backend empties the cart.
func (c *Client) Checkout(ctx context.Context, name, email string, items []CartItem) (*Order, error) {
	var o Order
	err := c.do(ctx, call{
		op:     "checkout",
		method: http.MethodPost,
		path:   "/api/checkout",
		body:   checkoutRequest{CustomerName: name, CustomerEmail: email, CartItems: items},
		kind:   kindMutation,
		auth:   authRequired,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Orders lists the user's orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.do(ctx, call{
		op:     "orders",
		method: http.MethodGet,
		path:   "/api/orders",
		kind:   kindRead,
		auth:   authRequired,
	}, &out)
	return out, err
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := c.do(ctx, call{
		op:     "order",
		method: http.MethodGet,
		path:   "/api/orders/" + url.PathEscape(orderID),
		kind:   kindRead,
		auth:   authRequired,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
