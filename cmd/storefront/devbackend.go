package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/storefronttest"
)

func devBackendCmd(c *cli) *cobra.Command {
	var (
		addr  string
		users []string
	)

	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Run an in-memory storefront backend",
		Long: `Run an in-memory backend that implements the storefront API.

Data lives only as long as the process. Seed accounts with --user.

Examples:
  storefront dev-backend
  storefront dev-backend --addr 127.0.0.1:4000 --user "Alice:alice@example.com:secret1"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.DevBackend.Addr
			}

			opts := []storefronttest.Option{storefronttest.WithLogger(c.logger(cfg).With("component", "dev-backend"))}
			if cfg.DevBackend.Secret != "" {
				opts = append(opts, storefronttest.WithSecret(cfg.DevBackend.Secret))
			}
			if ttl := cfg.DevTokenTTL(); ttl > 0 {
				opts = append(opts, storefronttest.WithTokenTTL(ttl))
			}
			backend := storefronttest.New(opts...)

			for _, entry := range users {
				parts := strings.SplitN(entry, ":", 3)
				if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
					return errors.New("E203").
						WithField("--user").
						WithDetail(fmt.Sprintf("%q is not name:email:password", entry))
				}
				backend.AddUser(parts[0], parts[1], parts[2])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serveBackend(ctx, addr, backend, len(users))
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().StringArrayVarP(&users, "user", "u", nil, "Seed account as name:email:password (repeatable)")

	return cmd
}

func (c *cli) serveBackend(ctx context.Context, addr string, h http.Handler, seeded int) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("E240").Wrap(err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	c.printBanner()
	c.success("Backend listening on http://%s", ln.Addr().String())
	if seeded > 0 {
		c.info("Seeded %d account(s)", seeded)
	}
	c.info("Press Ctrl+C to stop")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("E240").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(c.out, "\n  Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("E240").Wrap(err)
	}
	return nil
}
