package storefronttest

import (
	"net/http/httptest"
	"testing"
)

// Server is a Backend listening on a local port.
type Server struct {
	*Backend
	URL string

	srv *httptest.Server
}

// Start runs a Backend on an httptest server that is closed when the test
// ends.
//
//	srv := storefronttest.Start(t)
//	alice := srv.AddUser("Alice", "alice@example.com", "secret1")
//	client, _ := api.New(srv.URL)
func Start(tb testing.TB, opts ...Option) *Server {
	tb.Helper()
	b := New(opts...)
	srv := httptest.NewServer(b)
	tb.Cleanup(srv.Close)
	return &Server{Backend: b, URL: srv.URL, srv: srv}
}

// Close stops the server early, so that later calls fail with a
// transport error.
func (s *Server) Close() {
	s.srv.CloseClientConnections()
	s.srv.Close()
}
