package api

import (
	"context"
	"net/http"
	"net/url"
)

// Search runs a natural-language product search.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	var out []Product
	err := c.do(ctx, call{
		op:     "ai_search",
		method: http.MethodPost,
		path:   "/api/ai/search",
		body:   map[string]string{"query": query},
		kind:   kindRead,
		auth:   authOptional,
	}, &out)
	return out, err
}

// Chat sends a message to the shopping assistant. chatContext is optional
// extra context for the assistant.
func (c *Client) Chat(ctx context.Context, message, chatContext string) (*ChatReply, error) {
	body := map[string]string{"message": message}
	if chatContext != "" {
		body["context"] = chatContext
	}
	var reply ChatReply
	err := c.do(ctx, call{
		op:     "ai_chat",
		method: http.MethodPost,
		path:   "/api/ai/chat",
		body:   body,
		kind:   kindRead,
		auth:   authOptional,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Recommendations returns products suggested for userID. An empty userID
// asks for generic recommendations.
func (c *Client) Recommendations(ctx context.Context, userID string) ([]Product, error) {
	body := map[string]string{}
	if userID != "" {
		body["userId"] = userID
	}
	var out []Product
	err := c.do(ctx, call{
		op:     "ai_recommendations",
		method: http.MethodPost,
		path:   "/api/ai/recommendations",
		body:   body,
		kind:   kindRead,
		auth:   authOptional,
	}, &out)
	return out, err
}

// Analytics returns the activity summary for userID.
func (c *Client) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	var a Analytics
	err := c.do(ctx, call{
		op:     "analytics",
		method: http.MethodGet,
		path:   "/api/analytics",
		query:  url.Values{"userId": {userID}},
		kind:   kindRead,
		auth:   authRequired,
	}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// User fetches a user profile by id.
func (c *Client) User(ctx context.Context, userID string) (*User, error) {
	var u User
	err := c.do(ctx, call{
		op:     "get_user",
		method: http.MethodGet,
		path:   "/api/users/" + url.PathEscape(userID),
		kind:   kindRead,
		auth:   authRequired,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser writes profile fields and returns the stored profile.
func (c *Client) UpdateUser(ctx context.Context, userID string, patch map[string]any) (*User, error) {
	var u User
	err := c.do(ctx, call{
		op:     "update_user",
		method: http.MethodPut,
		path:   "/api/users/" + url.PathEscape(userID),
		body:   patch,
		kind:   kindMutation,
		auth:   authRequired,
	}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
