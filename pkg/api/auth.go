package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": password},
		kind:   kindAuth,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Signup registers a new account and returns its token and profile.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, call{
		op:     "signup",
		method: http.MethodPost,
		path:   "/api/auth/signup",
		body:   map[string]string{"name": name, "email": email, "password": password},
		kind:   kindAuth,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Me fetches the profile for token. A rejected token yields a
// *SessionExpiredError; the unauthorized hook is not fired.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	err := c.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/api/auth/me",
		kind:   kindRead,
		auth:   authRequired,
		token:  token,
		quiet:  true,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the backend that token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   "/api/auth/logout",
		kind:   kindMutation,
		auth:   authRequired,
		token:  token,
		quiet:  true,
	}, nil)
}
