package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nexora-dev/storefront/pkg/middleware"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:3001"

// RequestIDHeader carries a per-request ULID for correlating client and
// backend logs.
const RequestIDHeader = "X-Request-ID"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// TokenSource supplies the current session token. An empty string means
// the caller is anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

type callKind int

const (
	kindRead callKind = iota
	kindMutation
	kindAuth
)

type authMode int

const (
	authNone authMode = iota
	authOptional
	authRequired
)

// call describes one backend operation.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	kind   callKind
	auth   authMode

	// token overrides the TokenSource (hydration and logout pass the
	// token explicitly).
	token string

	// quiet suppresses the unauthorized hook; the session manager
	// handles those responses itself.
	quiet bool
}

// envelope is the backend's response wrapper: {success, data, message}.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Client calls the storefront backend. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    *slog.Logger
	userAgent string

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(*SessionExpiredError)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Timeouts and transport
// middleware belong there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithOnUnauthorized registers a hook invoked when an authenticated call
// is rejected as unauthorized.
func WithOnUnauthorized(fn func(*SessionExpiredError)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    slog.Default(),
		userAgent: "storefront-go",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetTokenSource replaces the token source. Used when the session manager
// is created after the client.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// OnUnauthorized replaces the unauthorized hook.
func (c *Client) OnUnauthorized(fn func(*SessionExpiredError)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) unauthorized(err *SessionExpiredError) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// do executes a call and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	token := cl.token
	if token == "" && cl.auth != authNone {
		token = c.currentToken()
	}
	if cl.auth == authRequired && token == "" {
		return fmt.Errorf("%s: %w", cl.op, ErrAnonymous)
	}

	req, err := c.newRequest(ctx, cl, token)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			"op", cl.op,
			"request_id", req.Header.Get(RequestIDHeader),
			"error", err,
		)
		return &NetworkError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: cl.op, Err: err}
	}

	c.logger.Debug("api request",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start),
	)

	var env envelope
	hasEnvelope := len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &env) == nil

	failed := resp.StatusCode < 200 || resp.StatusCode > 299
	if !failed && hasEnvelope && env.Success != nil && !*env.Success {
		failed = true
	}
	if failed {
		apiErr := classify(cl.op, cl.kind, token != "", resp.StatusCode, env.text())
		if se, ok := apiErr.(*SessionExpiredError); ok && !cl.quiet {
			c.unauthorized(se)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	data := env.Data
	if !hasEnvelope || (env.Data == nil && env.Success == nil) {
		data = body
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call, token string) (*http.Request, error) {
	target := c.baseURL.String() + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(middleware.WithOperation(ctx, cl.op), cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, ulid.Make().String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
