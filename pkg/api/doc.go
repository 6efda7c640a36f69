// Package api is the HTTP client for the storefront backend.
//
// The backend wraps every response in an envelope:
//
//	{"success": true, "data": {...}}
//	{"success": false, "message": "Insufficient stock"}
//
// Client unwraps data into typed values and maps failures onto a small
// error taxonomy:
//
//   - *AuthenticationError: login or signup rejected; Message is shown verbatim
//   - *SessionExpiredError: an authenticated call got 401; the session should
//     be dropped silently (see WithOnUnauthorized)
//   - *MutationError: a cart, wishlist, checkout or review call failed
//   - *RequestError: a read call failed
//   - *NetworkError: no response at all
//
// Use Message to turn any of these into user-facing text.
//
// # Authentication
//
// Calls that need a session read the bearer token from a TokenSource:
//
//	client, _ := api.New("https://shop.example.com")
//	client.SetTokenSource(sessionManager)
//
// When the source returns an empty token, such calls fail with
// ErrAnonymous before any request is made.
package api
