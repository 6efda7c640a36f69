package storefront

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexora-dev/storefront/internal/config"
	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/session"
	"github.com/nexora-dev/storefront/pkg/storefronttest"
	"github.com/nexora-dev/storefront/pkg/views"
)

func newTestApp(t *testing.T, srv *storefronttest.Server, storage StorageConfig) *App {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIURL = srv.URL
	cfg.Storage = storage
	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestAppWiresSessionIntoClient(t *testing.T) {
	srv := storefronttest.Start(t)
	srv.AddUser("Alice", "alice@example.com", "secret1")
	app := newTestApp(t, srv, StorageConfig{Kind: config.StoreMemory})
	ctx := context.Background()

	if app.Session().Status() != session.StatusLoading {
		t.Fatalf("status before Start = %v, want loading", app.Session().Status())
	}
	app.Start(ctx)
	if app.Session().Status() != session.StatusAnonymous {
		t.Fatalf("status after Start = %v, want anonymous", app.Session().Status())
	}

	changes := 0
	app.Bus().Subscribe(bus.SessionChanged, func() { changes++ })
	if err := app.Session().Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if changes != 1 {
		t.Errorf("sessionChanged published %d times, want 1", changes)
	}

	// The client sends the manager's token.
	if _, err := app.API().Cart(ctx); err != nil {
		t.Fatalf("Cart: %v", err)
	}

	// A revoked token expires the session through the client hook.
	srv.Revoke(app.Session().Token())
	if _, err := app.API().Cart(ctx); err == nil {
		t.Fatal("expected session expired error")
	}
	if app.Session().IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
}

func TestAppDepsDriveViews(t *testing.T) {
	srv := storefronttest.Start(t)
	app := newTestApp(t, srv, StorageConfig{Kind: config.StoreMemory})
	app.Start(context.Background())

	d := app.Deps()
	if d.API != app.API() || d.Session != app.Session() || d.Bus != app.Bus() ||
		d.Reconciler != app.Reconciler() || d.Toasts != app.Toasts() {
		t.Fatal("Deps() does not expose the App's components")
	}

	page := views.NewCartPage(d)
	decision, err := page.Mount(context.Background())
	if err != nil || decision != views.RedirectLogin {
		t.Errorf("anonymous cart Mount = %v, %v; want redirect", decision, err)
	}
	page.Unmount()
}

func TestAppPersistsLoginInSQLite(t *testing.T) {
	srv := storefronttest.Start(t)
	srv.AddUser("Alice", "alice@example.com", "secret1")
	storage := StorageConfig{
		Kind:  config.StoreSQLite,
		Path:  filepath.Join(t.TempDir(), "tokens.db"),
		Table: "tokens",
	}
	ctx := context.Background()

	first := newTestApp(t, srv, storage)
	first.Start(ctx)
	if err := first.Session().Login(ctx, "alice@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	second := newTestApp(t, srv, storage)
	second.Start(ctx)
	if !second.Session().IsAuthenticated() {
		t.Fatalf("status = %v, want restored login", second.Session().Status())
	}
	if u := second.Session().User(); u == nil || u.Name != "Alice" {
		t.Errorf("User() = %+v", u)
	}
}

func TestAppPersistsLoginInFile(t *testing.T) {
	srv := storefronttest.Start(t)
	srv.AddUser("Bob", "bob@example.com", "hunter22")
	storage := StorageConfig{Kind: config.StoreFile, Path: filepath.Join(t.TempDir(), "session.json")}
	ctx := context.Background()

	first := newTestApp(t, srv, storage)
	first.Start(ctx)
	if err := first.Session().Login(ctx, "bob@example.com", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	second := newTestApp(t, srv, storage)
	second.Start(ctx)
	if !second.Session().IsAuthenticated() {
		t.Fatal("file-backed login not restored")
	}

	second.Session().Logout(ctx)
	third := newTestApp(t, srv, storage)
	third.Start(ctx)
	if third.Session().IsAuthenticated() {
		t.Error("logout did not delete the persisted token")
	}
}

func TestNewStorageErrors(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageConfig
		code    string
	}{
		{"unknown kind", StorageConfig{Kind: "dynamo"}, "E101"},
		{"postgres without dsn", StorageConfig{Kind: config.StorePostgres}, "E104"},
		{"redis without url", StorageConfig{Kind: config.StoreRedis}, "E104"},
		{"redis bad url", StorageConfig{Kind: config.StoreRedis, URL: "mongodb://nope"}, "E220"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Storage = tt.storage
			_, err := New(context.Background(), cfg)
			if got := errors.Code(err); got != tt.code {
				t.Errorf("New() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIURL = "ftp://example.com"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New accepted an ftp URL")
	}
}

func TestFromFile(t *testing.T) {
	fc := config.New()
	fc.APIURL = "https://shop.example.com"
	fc.Timeout = "2s"
	fc.TokenStore = config.TokenStoreConfig{Kind: config.StoreRedis, URL: "redis://localhost:6379/1", Prefix: "x:", TTL: "30m"}
	fc.Telemetry.Tracing = true

	cfg := FromFile(fc)
	if cfg.APIURL != fc.APIURL || cfg.Timeout != 2*time.Second || !cfg.Tracing {
		t.Errorf("FromFile = %+v", cfg)
	}
	want := StorageConfig{Kind: config.StoreRedis, URL: "redis://localhost:6379/1", Prefix: "x:", TTL: 30 * time.Minute}
	if cfg.Storage != want {
		t.Errorf("Storage = %+v, want %+v", cfg.Storage, want)
	}
}

func TestAppMetrics(t *testing.T) {
	srv := storefronttest.Start(t)
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.APIURL = srv.URL
	cfg.Metrics = reg
	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if _, err := app.API().Products(context.Background(), api.ProductFilter{}); err != nil {
		t.Fatalf("Products: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range families {
		if strings.HasSuffix(mf.GetName(), "api_requests_total") {
			found = true
		}
	}
	if !found {
		t.Error("api_requests_total not recorded")
	}
}

func TestUserAgent(t *testing.T) {
	if got := userAgent(""); got != "storefront-go/"+Version {
		t.Errorf("userAgent(\"\") = %q", got)
	}
	if got := userAgent("kiosk/1"); got != "kiosk/1" {
		t.Errorf("userAgent(custom) = %q", got)
	}
}
