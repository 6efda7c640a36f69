package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront"
	"github.com/nexora-dev/storefront/internal/config"
	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/toast"
	"github.com/nexora-dev/storefront/pkg/views"
)

// cli carries the global flags and the per-run App.
type cli struct {
	configPath string
	apiURL     string
	ephemeral  bool
	noColor    bool
	verbose    bool

	out    io.Writer
	errOut io.Writer
}

// loadConfig resolves the configuration and applies flag overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, err := config.Resolve(c.configPath, wd)
	if err != nil {
		return nil, err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.ephemeral {
		cfg.TokenStore.Kind = config.StoreMemory
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *cli) logger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(c.errOut, opts))
	}
	return slog.New(slog.NewTextHandler(c.errOut, opts))
}

// client is one CLI run: the wired App plus whatever it needs to shut
// down.
type client struct {
	*storefront.App
	cli     *cli
	metrics *http.Server
}

// open loads the config, builds the App and restores the saved login.
func (c *cli) open(ctx context.Context) (*client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger(cfg)

	appCfg := storefront.FromFile(cfg)
	appCfg.Logger = logger

	s := &client{cli: c}
	if cfg.Telemetry.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		appCfg.Metrics = reg
		s.metrics, err = serveMetrics(cfg.Telemetry.MetricsAddr, reg, logger)
		if err != nil {
			return nil, err
		}
	}

	app, err := storefront.New(ctx, appCfg)
	if err != nil {
		s.stopMetrics()
		return nil, err
	}
	s.App = app
	app.Start(ctx)
	logger.Debug("session restored", "status", app.Session().Status().String())
	return s, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Newf(errors.CategoryNetwork, "metrics listener on %s", addr).Wrap(err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Debug("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

func (s *client) stopMetrics() {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.metrics.Shutdown(ctx)
}

func (s *client) close() {
	if s.App != nil {
		if err := s.App.Close(); err != nil {
			s.cli.errorMsg("closing token store: %v", err)
		}
	}
	s.stopMetrics()
}

// flush prints and removes every queued toast. It reports whether one of
// them was an error.
func (s *client) flush() bool {
	failed := false
	for _, t := range s.Toasts().Drain() {
		switch t.Type {
		case toast.TypeSuccess:
			s.cli.success("%s", t.Message)
		case toast.TypeError:
			failed = true
			s.cli.errorMsg("%s", t.Message)
		case toast.TypeWarning:
			s.cli.warn("%s", t.Message)
		default:
			s.cli.info("%s", t.Message)
		}
	}
	return failed
}

// action wraps a command body: it opens the App, runs fn and prints the
// toasts fn produced. Errors already shown as toasts are not printed twice.
func (c *cli) action(fn func(ctx context.Context, s *client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := c.open(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		err = fn(ctx, s, args)
		shown := s.flush()
		if err == nil {
			return nil
		}
		if stderrors.Is(err, views.ErrAlreadyInWishlist) {
			return nil
		}
		if shown || stderrors.Is(err, api.ErrAnonymous) {
			return errShown
		}
		return cliError(err)
	}
}

// guard turns a view's mount decision into a CLI error.
func guard(d views.Decision, err error) error {
	if err != nil {
		return err
	}
	if d != views.Render {
		return errors.New("E200")
	}
	return nil
}

// cliError maps client errors to coded errors with hints.
func cliError(err error) error {
	var se *errors.StoreError
	if stderrors.As(err, &se) {
		return err
	}
	var netErr *api.NetworkError
	if stderrors.As(err, &netErr) {
		return errors.New("E202").Wrap(err)
	}
	var expired *api.SessionExpiredError
	if stderrors.As(err, &expired) {
		return errors.New("E200").WithDetail("Your session has expired.")
	}
	return errors.New("E204").Wrap(err)
}
