package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/api"
)

func profileCmd(c *cli) *cobra.Command {
	var (
		name     string
		likes    []string
		minPrice, maxPrice float64
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Long: `Show the profile stored by the backend, or change it.

Examples:
  storefront profile
  storefront profile --name "Alice Smith"
  storefront profile --likes electronics,sports --min 20 --max 200`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		if !s.Session().IsAuthenticated() {
			return errors.New("E200")
		}
		id := s.Session().User().UserID

		flags := cmd.Flags()
		if !flags.Changed("name") && !flags.Changed("likes") && !flags.Changed("min") && !flags.Changed("max") {
			u, err := s.API().User(ctx, id)
			if err != nil {
				return err
			}
			c.printProfile(u)
			return nil
		}

		patch := map[string]any{}
		if flags.Changed("name") {
			if strings.TrimSpace(name) == "" {
				return errors.New("E203").WithField("--name").WithDetail("Name cannot be empty")
			}
			patch["name"] = name
		}
		if flags.Changed("likes") || flags.Changed("min") || flags.Changed("max") {
			prefs := s.Session().User().Preferences
			if flags.Changed("likes") {
				prefs.FavoriteCategories = likes
			}
			if flags.Changed("min") {
				prefs.PriceRange.Min = minPrice
			}
			if flags.Changed("max") {
				prefs.PriceRange.Max = maxPrice
			}
			if prefs.PriceRange.Min < 0 || (prefs.PriceRange.Max > 0 && prefs.PriceRange.Max < prefs.PriceRange.Min) {
				return errors.New("E203").WithField("--min/--max").WithDetail("The price range is empty")
			}
			patch["preferences"] = prefs
		}

		u, err := s.API().UpdateUser(ctx, id, patch)
		if err != nil {
			return err
		}
		if err := s.Session().Refresh(ctx); err != nil {
			s.Logger().Debug("profile refresh failed", "error", err)
		}
		c.success("Profile updated")
		c.printProfile(u)
		return nil
	})

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringSliceVar(&likes, "likes", nil, "Favorite categories, comma separated")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "Lowest price you shop for")
	cmd.Flags().Float64Var(&maxPrice, "max", 0, "Highest price you shop for")

	return cmd
}

func (c *cli) printProfile(u *api.User) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint(ansiBold, u.Name), c.paint(ansiGray, "<"+u.Email+">"))
	c.info("User ID:  %s", u.UserID)
	if cats := u.Preferences.FavoriteCategories; len(cats) > 0 {
		c.info("Likes:    %s", strings.Join(cats, ", "))
	}
	if r := u.Preferences.PriceRange; r.Max > 0 {
		c.info("Budget:   %s to %s", price(r.Min), price(r.Max))
	}
	c.info("Saved:    %d product(s)", len(u.Wishlist))
}
