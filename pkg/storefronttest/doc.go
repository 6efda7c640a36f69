// Package storefronttest provides an in-memory storefront backend for tests
// and local development.
//
// The Backend implements the full HTTP contract the api package consumes:
// auth with HS256 JWTs, catalog, cart, checkout, orders, wishlist, the AI
// endpoints (with canned answers) and user profiles. Every response uses
// the {success, data, message} envelope.
//
// # Quick Start
//
//	func TestCheckout(t *testing.T) {
//	    srv := storefronttest.Start(t)
//	    srv.AddUser("Alice", "alice@example.com", "secret1")
//	    client, _ := api.New(srv.URL)
//	    ...
//	}
//
// # Fault Injection
//
// Routes are addressed as "METHOD pattern":
//
//	srv.FailNext("POST /api/cart", 400, "Insufficient stock")
//	srv.DisconnectNext("POST /api/checkout")
//	n := srv.Calls("GET /api/auth/me")
//
// The storefront CLI serves the same Backend with "storefront dev-backend".
package storefronttest
