package api

import (
	"context"
	"net/http"
	"net/url"
)

// Products lists the catalog. Browsing works anonymously; a token is sent
// when one is available.
func (c *Client) Products(ctx context.Context, f ProductFilter) ([]Product, error) {
	q := url.Values{}
	if f.Category != "" && f.Category != "all" {
		q.Set("category", f.Category)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	var out []Product
	err := c.do(ctx, call{
		op:     "products",
		method: http.MethodGet,
		path:   "/api/products",
		query:  q,
		kind:   kindRead,
		auth:   authOptional,
	}, &out)
	return out, err
}

// Product fetches one product by id.
func (c *Client) Product(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := c.do(ctx, call{
		op:     "product",
		method: http.MethodGet,
		path:   "/api/products/" + url.PathEscape(id),
		kind:   kindRead,
		auth:   authOptional,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddReview posts a review and returns the updated product.
func (c *Client) AddReview(ctx context.Context, productID string, in ReviewInput) (*Product, error) {
	var p Product
	err := c.do(ctx, call{
		op:     "add_review",
		method: http.MethodPost,
		path:   "/api/products/" + url.PathEscape(productID) + "/reviews",
		body:   in,
		kind:   kindMutation,
		auth:   authRequired,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
