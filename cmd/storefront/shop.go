package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/views"
)

func productsCmd(c *cli) *cobra.Command {
	var category, sort string

	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"shop", "ls"},
		Short:   "List the catalog",
		Long: `List products, optionally filtered by category and sorted.

Signed-in users also see which products are on their wishlist and
a few AI recommendations.

Sort orders: name, price-low, price-high, rating

Examples:
  storefront products
  storefront products --category electronics --sort price-low`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewShopPage(s.Deps())
		defer page.Unmount()
		if err := page.Mount(ctx); err != nil {
			return err
		}
		if category != "" && !strings.EqualFold(category, views.AllCategories) {
			if err := page.SetCategory(ctx, category); err != nil {
				return err
			}
		}
		if sort != "" && sort != page.Filter().Sort {
			if err := page.SetSort(ctx, sort); err != nil {
				return err
			}
		}

		products := page.Products()
		if len(products) == 0 {
			c.info("No products found")
			return nil
		}
		c.printProducts(products, page.InWishlist)

		if recs := page.Recommendations(); len(recs) > 0 {
			fmt.Fprintf(c.out, "\n%s\n", c.paint(ansiBold, "Recommended for you"))
			c.printProducts(recs, page.InWishlist)
		}
		return nil
	})

	cmd.Flags().StringVar(&category, "category", "", "Only show this category")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort order (name, price-low, price-high, rating)")

	return cmd
}

func productCmd(c *cli) *cobra.Command {
	var (
		add      int
		wishlist bool
		rating   int
		comment  string
	)

	cmd := &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product, add it to the cart or review it",
		Long: `Show one product with its reviews.

Examples:
  storefront product p1
  storefront product p1 --add 2
  storefront product p1 --wishlist
  storefront product p1 --rating 5 --comment "Great sound"`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewProductPage(s.Deps(), args[0])
		defer page.Unmount()
		if err := page.Mount(ctx); err != nil {
			return err
		}

		switch {
		case add > 0:
			return page.AddToCart(ctx, add)
		case wishlist:
			return page.AddToWishlist(ctx)
		case rating != 0:
			if rating < 1 || rating > 5 {
				return errors.New("E203").WithField("rating").WithDetail("Ratings go from 1 to 5")
			}
			if err := page.AddReview(ctx, rating, comment); err != nil {
				return err
			}
		}

		p := page.Product()
		if p == nil {
			return errors.New("E204").WithDetail("Product " + args[0] + " not found")
		}
		c.printProductDetail(p, page.InWishlist())
		return nil
	})

	cmd.Flags().IntVarP(&add, "add", "a", 0, "Add this many to the cart")
	cmd.Flags().BoolVarP(&wishlist, "wishlist", "w", false, "Save to the wishlist")
	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "Review rating (1-5)")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "Review comment")

	return cmd
}

func searchCmd(c *cli) *cobra.Command {
	var add string

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the catalog with the AI assistant",
		Long: `Search the catalog in plain language.

Examples:
  storefront search wireless headphones under 100
  storefront search coffee --add p5`,
		Args: cobra.MinimumNArgs(1),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewSearchPage(s.Deps())
		defer page.Unmount()
		if err := page.Mount(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
		if add != "" {
			return page.AddToCart(ctx, add)
		}
		results := page.Results()
		if len(results) == 0 {
			c.info("No results for %q", page.Query())
			return nil
		}
		c.printProducts(results, page.InWishlist)
		return nil
	})

	cmd.Flags().StringVar(&add, "add", "", "Add this product from the results to the cart")

	return cmd
}

func recommendCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show AI picks for you",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		if !s.Session().IsAuthenticated() {
			return errors.New("E200")
		}
		picks, err := s.API().Recommendations(ctx, s.Session().User().UserID)
		if err != nil {
			return err
		}
		if len(picks) == 0 {
			c.info("No recommendations yet")
			return nil
		}
		c.printProducts(picks, func(string) bool { return false })
		return nil
	})
	return cmd
}

func (c *cli) printProducts(products []api.Product, saved func(string) bool) {
	for _, p := range products {
		mark := " "
		if saved(p.ID) {
			mark = c.paint(ansiRed, "♥")
		}
		stock := ""
		if p.Stock == 0 {
			stock = c.paint(ansiRed, " (out of stock)")
		}
		fmt.Fprintf(c.out, "%s %-4s %-40s %10s  %s %s%s\n",
			mark,
			p.ID,
			p.Name,
			c.paint(ansiGreen, price(p.Price)),
			c.paint(ansiYellow, stars(p.Rating)),
			c.paint(ansiGray, p.Category),
			stock,
		)
	}
}

func (c *cli) printProductDetail(p *api.Product, saved bool) {
	fmt.Fprintf(c.out, "%s  %s\n", c.paint(ansiBold, p.Name), c.paint(ansiGray, p.ID))
	fmt.Fprintf(c.out, "%s  %s  %s\n", c.paint(ansiGreen, price(p.Price)), c.paint(ansiYellow, stars(p.Rating)), p.Category)
	if p.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", p.Description)
	}
	c.info("In stock: %d", p.Stock)
	if saved {
		c.info("%s On your wishlist", c.paint(ansiRed, "♥"))
	}
	if len(p.Reviews) > 0 {
		fmt.Fprintf(c.out, "\n%s\n", c.paint(ansiBold, "Reviews"))
		for _, r := range p.Reviews {
			fmt.Fprintf(c.out, "  %s %s: %s\n", c.paint(ansiYellow, strings.Repeat("★", r.Rating)), r.UserName, r.Comment)
		}
	}
}

func price(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func stars(rating float64) string {
	return strconv.FormatFloat(rating, 'f', 1, 64) + "★"
}
