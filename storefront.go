// Package storefront wires the storefront client core into one App: the
// backend API client, the persisted session, the notification bus, the
// toast queue and the mutate-then-reconcile helper the views use.
//
// Usage:
//
//	app, err := storefront.New(ctx, storefront.Config{
//	    APIURL:  "http://localhost:3001",
//	    Storage: storefront.StorageConfig{Kind: "file"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	app.Start(ctx) // restore the saved login
//	cart := views.NewCartPage(app.Deps())
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/bus"
	"github.com/nexora-dev/storefront/pkg/middleware"
	"github.com/nexora-dev/storefront/pkg/session"
	"github.com/nexora-dev/storefront/pkg/snapshot"
	"github.com/nexora-dev/storefront/pkg/toast"
	"github.com/nexora-dev/storefront/pkg/views"
)

// Version is the client version reported by "storefront version".
const Version = "0.4.0"

// App holds one wired client. It is safe for concurrent use.
type App struct {
	config Config
	logger *slog.Logger

	client     *api.Client
	session    *session.Manager
	bus        *bus.Bus
	toasts     *toast.Queue
	reconciler *snapshot.Reconciler

	store     openedStorage
	closeOnce sync.Once
	closeErr  error
}

// New creates an App from cfg. The token store is opened and, for SQL
// backends, its table created. The session starts in the loading state
// until Start is called.
func New(ctx context.Context, cfg Config) (*App, error) {
	cfg.applyDefaults()
	logger := cfg.Logger

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIURL,
		api.WithHTTPClient(newHTTPClient(cfg)),
		api.WithLogger(logger.With("component", "api")),
		api.WithUserAgent(userAgent(cfg.UserAgent)),
	)
	if err != nil {
		_ = store.close()
		return nil, err
	}

	b := bus.New(bus.WithLogger(logger.With("component", "bus")))
	q := toast.NewQueue(
		toast.WithPublisher(b),
		toast.WithLogger(logger.With("component", "toast")),
	)
	mgr := session.NewManager(client, store.storage,
		session.WithPublisher(b),
		session.WithLogger(logger.With("component", "session")),
	)
	client.SetTokenSource(mgr)
	client.OnUnauthorized(mgr.HandleUnauthorized)

	return &App{
		config:     cfg,
		logger:     logger,
		client:     client,
		session:    mgr,
		bus:        b,
		toasts:     q,
		reconciler: snapshot.NewReconciler(b, q, snapshot.WithLogger(logger.With("component", "reconcile"))),
		store:      store,
	}, nil
}

// newHTTPClient builds the transport chain: tracing outermost so the
// metrics round trip is inside the span.
func newHTTPClient(cfg Config) *http.Client {
	var mws []middleware.Middleware
	if cfg.Tracing {
		var opts []middleware.OTelOption
		if cfg.TracerProvider != nil {
			opts = append(opts, middleware.WithTracerProvider(cfg.TracerProvider))
		}
		mws = append(mws, middleware.OpenTelemetry(opts...))
	}
	if cfg.Metrics != nil {
		mws = append(mws, middleware.Prometheus(middleware.WithRegistry(cfg.Metrics)))
	}
	return &http.Client{
		Transport: middleware.Chain(cfg.Transport, mws...),
		Timeout:   cfg.Timeout,
	}
}

func userAgent(ua string) string {
	if ua != "" {
		return ua
	}
	return "storefront-go/" + Version
}

// Start restores the persisted session. It returns once hydration has
// finished; failures leave the session anonymous.
func (a *App) Start(ctx context.Context) {
	a.session.Hydrate(ctx)
}

// Deps returns the dependencies views are constructed with.
func (a *App) Deps() views.Deps {
	return views.Deps{
		API:        a.client,
		Session:    a.session,
		Bus:        a.bus,
		Reconciler: a.reconciler,
		Toasts:     a.toasts,
		Logger:     a.logger,
	}
}

// API returns the backend client.
func (a *App) API() *api.Client { return a.client }

// Session returns the session manager.
func (a *App) Session() *session.Manager { return a.session }

// Bus returns the notification bus.
func (a *App) Bus() *bus.Bus { return a.bus }

// Toasts returns the toast queue.
func (a *App) Toasts() *toast.Queue { return a.toasts }

// Reconciler returns the mutate-then-reconcile helper.
func (a *App) Reconciler() *snapshot.Reconciler { return a.reconciler }

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the configuration the App was built with.
func (a *App) Config() Config { return a.config }

// Close releases the token store and any database connection it holds.
// It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		err := a.store.close()
		if errors.Is(err, session.ErrStorageClosed) {
			err = nil
		}
		a.closeErr = err
	})
	return a.closeErr
}
