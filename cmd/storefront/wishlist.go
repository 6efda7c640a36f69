package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/pkg/views"
)

func wishlistCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wishlist",
		Aliases: []string{"wl"},
		Short:   "Show and edit your wishlist",
		Long: `Show the wishlist, or edit it with a subcommand.

Examples:
  storefront wishlist
  storefront wishlist add p2
  storefront wishlist remove p2
  storefront wishlist to-cart p2`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewWishlistPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}
		c.printWishlist(page)
		return nil
	})

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Save a product",
		Args:  cobra.ExactArgs(1),
	}
	add.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewProductPage(s.Deps(), args[0])
		defer page.Unmount()
		if err := page.Mount(ctx); err != nil {
			return err
		}
		return page.AddToWishlist(ctx)
	})

	remove := &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved product",
		Args:    cobra.ExactArgs(1),
	}
	remove.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewWishlistPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}
		if err := page.Remove(ctx, args[0]); err != nil {
			return err
		}
		c.printWishlist(page)
		return nil
	})

	toCart := &cobra.Command{
		Use:   "to-cart <product-id>",
		Short: "Add a saved product to the cart",
		Args:  cobra.ExactArgs(1),
	}
	toCart.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewWishlistPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}
		return page.AddToCart(ctx, args[0])
	})

	cmd.AddCommand(add, remove, toCart)
	return cmd
}

func (c *cli) printWishlist(page *views.WishlistPage) {
	products := page.Products()
	if len(products) == 0 {
		c.info("Your wishlist is empty")
		return
	}
	c.printProducts(products, func(string) bool { return true })
}
