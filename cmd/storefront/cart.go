package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/views"
)

func cartCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit your cart",
		Long: `Show the cart, or edit it with a subcommand.

Examples:
  storefront cart
  storefront cart add p1 2
  storefront cart set p1 3
  storefront cart remove p1
  storefront cart clear`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewCartPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}
		c.printCart(page.Cart())
		return nil
	})

	cmd.AddCommand(cartAddCmd(c), cartSetCmd(c), cartRemoveCmd(c), cartClearCmd(c))
	return cmd
}

func cartAddCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		qty := 1
		if len(args) == 2 {
			n, err := quantityArg(args[1])
			if err != nil {
				return err
			}
			qty = n
		}
		page := views.NewProductPage(s.Deps(), args[0])
		defer page.Unmount()
		return page.AddToCart(ctx, qty)
	})
	return cmd
}

func cartSetCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Change a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		qty, err := strconv.Atoi(args[1])
		if err != nil || qty < 0 {
			return errors.New("E203").WithField("quantity").WithDetail(args[1] + " is not a quantity")
		}
		return c.editCart(ctx, s, func(page *views.CartPage) error {
			return page.UpdateQuantity(ctx, args[0], qty)
		})
	})
	return cmd
}

func cartRemoveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		return c.editCart(ctx, s, func(page *views.CartPage) error {
			return page.Remove(ctx, args[0])
		})
	})
	return cmd
}

func cartClearCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		return c.editCart(ctx, s, func(page *views.CartPage) error {
			return page.Clear(ctx)
		})
	})
	return cmd
}

// editCart mounts the cart page, applies edit and prints the result.
func (c *cli) editCart(ctx context.Context, s *client, edit func(*views.CartPage) error) error {
	page := views.NewCartPage(s.Deps())
	defer page.Unmount()
	if err := guard(page.Mount(ctx)); err != nil {
		return err
	}
	if err := edit(page); err != nil {
		return err
	}
	c.printCart(page.Cart())
	return nil
}

func checkoutCmd(c *cli) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Long: `Place an order for everything in the cart.

The name and email default to your profile.

Examples:
  storefront checkout
  storefront checkout --name "Alice Smith" --email alice@work.example`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewCheckoutPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}
		if page.Redirect() == views.CartPath {
			c.warn("Your cart is empty")
			return nil
		}
		if name != "" {
			page.Name = name
		}
		if email != "" {
			page.Email = email
		}

		order, err := page.PlaceOrder(ctx)
		if err != nil {
			return err
		}
		c.printOrder(*order)
		return nil
	})

	cmd.Flags().StringVarP(&name, "name", "n", "", "Customer name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Customer email")

	return cmd
}

func quantityArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("E203").WithField("quantity").WithDetail(s + " is not a positive quantity")
	}
	return n, nil
}

func (c *cli) printCart(cart *api.Cart) {
	if cart == nil || len(cart.Items) == 0 {
		c.info("Your cart is empty")
		return
	}
	for _, it := range cart.Items {
		fmt.Fprintf(c.out, "  %-4s %-40s %3d × %9s\n", it.ProductID, it.Name, it.Quantity, price(it.Price))
	}
	fmt.Fprintf(c.out, "  %s %s (%d items)\n", c.paint(ansiBold, "Total:"), c.paint(ansiGreen, price(cart.Total)), cart.ItemCount())
}
