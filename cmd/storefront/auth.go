package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/views"
)

func loginCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		Long: `Sign in and remember the session in the configured token store.

Missing credentials are read from standard input.

Examples:
  storefront login --email alice@example.com
  echo secret1 | storefront login --email alice@example.com`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		if err := prompt(c, in, "Email", &email); err != nil {
			return err
		}
		if err := prompt(c, in, "Password", &password); err != nil {
			return err
		}
		if err := s.Session().Login(ctx, email, password); err != nil {
			c.errorMsg("%s", api.Message(err, "Login failed"))
			return errShown
		}
		c.success("Signed in as %s", c.paint(ansiBold, s.Session().User().Name))
		return nil
	})

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")

	return cmd
}

func signupCmd(c *cli) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Long: `Create an account and sign in to it.

Examples:
  storefront signup --name Alice --email alice@example.com`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		for _, f := range []struct {
			label string
			value *string
		}{{"Name", &name}, {"Email", &email}, {"Password", &password}} {
			if err := prompt(c, in, f.label, f.value); err != nil {
				return err
			}
		}
		if err := s.Session().Signup(ctx, name, email, password); err != nil {
			c.errorMsg("%s", api.Message(err, "Signup failed"))
			return errShown
		}
		c.success("Welcome, %s!", c.paint(ansiBold, s.Session().User().Name))
		return nil
	})

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")

	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		header := views.NewHeader(s.Deps())
		if err := header.Mount(ctx); err != nil {
			return err
		}
		defer header.Unmount()

		if !s.Session().IsAuthenticated() {
			c.info("Not signed in")
			return nil
		}
		header.Logout(ctx)
		c.success("Signed out")
		return nil
	})
	return cmd
}

func whoamiCmd(c *cli) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and cart",
		Long: `Show the signed-in user and cart.

Examples:
  storefront whoami
  storefront whoami --stats`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		header := views.NewHeader(s.Deps())
		if err := header.Mount(ctx); err != nil {
			return err
		}
		defer header.Unmount()

		if !s.Session().IsAuthenticated() {
			return errors.New("E200")
		}
		u := s.Session().User()
		fmt.Fprintf(c.out, "%s %s\n", c.paint(ansiBold, u.Name), c.paint(ansiGray, "<"+u.Email+">"))
		c.info("User ID: %s", u.UserID)
		c.info("Cart:    %d item(s)", header.CartCount())
		if cats := u.Preferences.FavoriteCategories; len(cats) > 0 {
			c.info("Likes:   %s", strings.Join(cats, ", "))
		}
		if !stats {
			return nil
		}

		a, err := s.API().Analytics(ctx, u.UserID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\n%s\n", c.paint(ansiBold, "Activity"))
		c.info("Orders:  %d", a.Orders.TotalOrders)
		c.info("Spent:   %s", price(a.Orders.TotalSpent))
		c.info("Average: %s", price(a.Orders.AverageOrderValue))
		if last := a.RecentActivity.LastOrder; last != nil {
			c.info("Last:    %s (%s)", last.OrderID, views.StatusDisplay(last.Status).Label)
		}
		return nil
	})

	cmd.Flags().BoolVar(&stats, "stats", false, "Also show order totals")

	return cmd
}

// prompt reads a missing value from in.
func prompt(c *cli, in *bufio.Reader, label string, value *string) error {
	if *value != "" {
		return nil
	}
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.New("E203").WithField(strings.ToLower(label)).Wrap(err)
	}
	*value = strings.TrimSpace(line)
	if *value == "" {
		return errors.New("E203").
			WithField(strings.ToLower(label)).
			WithDetail(label + " is required")
	}
	return nil
}
