package storefronttest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"

	"github.com/nexora-dev/storefront/pkg/api"
)

// Backend is an in-memory implementation of the storefront backend
// contract. It is safe for concurrent use.
type Backend struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	chat     func(message, context string) string
	router   chi.Router

	mu        sync.Mutex
	accounts  map[string]*account // by email
	byID      map[string]*account
	products  []api.Product
	carts     map[string]*api.Cart
	orders    map[string][]api.Order
	wishlists map[string][]string
	revoked   map[string]bool
	faults    map[string][]fault
	calls     map[string]int
}

type account struct {
	user     api.User
	password string
}

type fault struct {
	status     int
	message    string
	disconnect bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithSecret sets the HMAC key used to sign tokens.
func WithSecret(secret string) Option {
	return func(b *Backend) {
		b.secret = []byte(secret)
	}
}

// WithTokenTTL sets the lifetime of issued tokens. Default: 24h.
func WithTokenTTL(d time.Duration) Option {
	return func(b *Backend) {
		b.tokenTTL = d
	}
}

// WithClock overrides the clock used for tokens and timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger logs every request at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// WithChatResponder replaces the canned assistant.
func WithChatResponder(fn func(message, context string) string) Option {
	return func(b *Backend) {
		if fn != nil {
			b.chat = fn
		}
	}
}

// WithProducts replaces the seed catalog.
func WithProducts(products ...api.Product) Option {
	return func(b *Backend) {
		b.products = append([]api.Product(nil), products...)
	}
}

// New creates a backend seeded with DefaultProducts and no users.
func New(opts ...Option) *Backend {
	b := &Backend{
		secret:    []byte("storefront-dev-secret"),
		tokenTTL:  24 * time.Hour,
		now:       time.Now,
		chat:      defaultChat,
		accounts:  make(map[string]*account),
		byID:      make(map[string]*account),
		products:  DefaultProducts(),
		carts:     make(map[string]*api.Cart),
		orders:    make(map[string][]api.Order),
		wishlists: make(map[string][]string),
		revoked:   make(map[string]bool),
		faults:    make(map[string][]fault),
		calls:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.router = b.routes()
	return b
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if b.logger != nil {
		r.Use(b.logRequests)
	}

	b.handle(r, http.MethodPost, "/api/auth/login", b.login)
	b.handle(r, http.MethodPost, "/api/auth/signup", b.signup)
	b.handle(r, http.MethodPost, "/api/auth/logout", b.authed(b.logout))
	b.handle(r, http.MethodGet, "/api/auth/me", b.authed(b.me))

	b.handle(r, http.MethodGet, "/api/products", b.listProducts)
	b.handle(r, http.MethodGet, "/api/products/{id}", b.getProduct)
	b.handle(r, http.MethodPost, "/api/products/{id}/reviews", b.authed(b.addReview))

	b.handle(r, http.MethodGet, "/api/cart", b.authed(b.getCart))
	b.handle(r, http.MethodPost, "/api/cart", b.authed(b.addToCart))
	b.handle(r, http.MethodPut, "/api/cart", b.authed(b.updateCart))
	b.handle(r, http.MethodDelete, "/api/cart/clear", b.authed(b.clearCart))
	b.handle(r, http.MethodDelete, "/api/cart/{productId}", b.authed(b.removeFromCart))

	b.handle(r, http.MethodPost, "/api/checkout", b.authed(b.checkout))
	b.handle(r, http.MethodGet, "/api/orders", b.authed(b.listOrders))
	b.handle(r, http.MethodGet, "/api/orders/{id}", b.authed(b.getOrder))

	b.handle(r, http.MethodGet, "/api/wishlist", b.authed(b.getWishlist))
	b.handle(r, http.MethodPost, "/api/wishlist", b.authed(b.addToWishlist))
	b.handle(r, http.MethodDelete, "/api/wishlist", b.authed(b.removeFromWishlist))

	b.handle(r, http.MethodPost, "/api/ai/recommendations", b.recommendations)
	b.handle(r, http.MethodPost, "/api/ai/search", b.search)
	b.handle(r, http.MethodPost, "/api/ai/chat", b.chatReply)

	b.handle(r, http.MethodGet, "/api/analytics", b.authed(b.analytics))
	b.handle(r, http.MethodGet, "/api/users/{id}", b.authed(b.getUser))
	b.handle(r, http.MethodPut, "/api/users/{id}", b.authed(b.updateUser))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	return r
}

// handle registers h under "METHOD pattern", counting calls and applying
// queued faults first.
func (b *Backend) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		f, ok := b.recordCall(key)
		if ok {
			if f.disconnect {
				disconnect(w)
				return
			}
			writeError(w, f.status, f.message)
			return
		}
		h(w, req)
	}))
}

func (b *Backend) recordCall(key string) (fault, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[key]++
	queue := b.faults[key]
	if len(queue) == 0 {
		return fault{}, false
	}
	b.faults[key] = queue[1:]
	return queue[0], true
}

// disconnect drops the connection without a response, which clients see as
// a transport error.
func disconnect(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

func (b *Backend) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		b.logger.Debug("backend request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

// FailNext makes the next call to route ("POST /api/cart") answer with
// status and message instead of running.
func (b *Backend) FailNext(route string, status int, message string) {
	b.mu.Lock()
	b.faults[route] = append(b.faults[route], fault{status: status, message: message})
	b.mu.Unlock()
}

// DisconnectNext makes the next call to route close the connection
// without answering. net/http may retry idempotent requests on a reused
// connection, so GET routes can need two queued disconnects.
func (b *Backend) DisconnectNext(route string) {
	b.mu.Lock()
	b.faults[route] = append(b.faults[route], fault{disconnect: true})
	b.mu.Unlock()
}

// Calls returns how many requests reached route, including failed ones.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// AddUser registers an account and returns its profile.
func (b *Backend) AddUser(name, email, password string) api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password).user
}

func (b *Backend) addUserLocked(name, email, password string) *account {
	acct := &account{
		user: api.User{
			UserID:   "user_" + strings.ToLower(ulid.Make().String()),
			Name:     name,
			Email:    strings.ToLower(email),
			Wishlist: []api.WishlistItem{},
			Preferences: api.Preferences{
				FavoriteCategories: []string{},
				PriceRange:         api.PriceRange{Min: 0, Max: 1000},
			},
		},
		password: password,
	}
	b.accounts[acct.user.Email] = acct
	b.byID[acct.user.UserID] = acct
	return acct
}

// AddProduct appends p to the catalog.
func (b *Backend) AddProduct(p api.Product) {
	b.mu.Lock()
	b.products = append(b.products, p)
	b.mu.Unlock()
}

// Cart returns a copy of the cart for userID.
func (b *Backend) Cart(userID string) api.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyCart(b.cartLocked(userID))
}

// Orders returns the orders placed by userID.
func (b *Backend) Orders(userID string) []api.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Order(nil), b.orders[userID]...)
}

// IssueToken signs a token for userID.
func (b *Backend) IssueToken(userID string) string {
	now := b.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        ulid.Make().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("storefronttest: sign token: %v", err))
	}
	return s
}

// Revoke makes token unacceptable from now on.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	b.revoked[token] = true
	b.mu.Unlock()
}

// authed rejects requests without a valid bearer token.
func (b *Backend) authed(next func(w http.ResponseWriter, r *http.Request, acct *account, token string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		tokenStr := strings.TrimPrefix(h, "Bearer ")

		var claims jwt.RegisteredClaims
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
		token, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
			return b.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(b.now()) {
			writeError(w, http.StatusUnauthorized, "Token expired")
			return
		}

		b.mu.Lock()
		revoked := b.revoked[tokenStr]
		acct := b.byID[claims.Subject]
		b.mu.Unlock()
		if revoked || acct == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r, acct, tokenStr)
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

var errBadBody = errors.New("invalid request body")

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errBadBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}
