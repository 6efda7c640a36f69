package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/pkg/api"
	"github.com/nexora-dev/storefront/pkg/views"
)

func ordersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders [order-id]",
		Short: "List your orders, or show one",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewOrdersPage(s.Deps())
		defer page.Unmount()
		if err := guard(page.Mount(ctx)); err != nil {
			return err
		}

		if len(args) == 1 {
			order, err := s.API().Order(ctx, args[0])
			if err != nil {
				return err
			}
			c.printOrder(*order)
			return nil
		}

		orders := page.Orders()
		if len(orders) == 0 {
			c.info("No orders yet")
			return nil
		}
		for _, o := range orders {
			style := views.StatusDisplay(o.Status)
			fmt.Fprintf(c.out, "%s %-28s %s  %9s  %s\n",
				c.paint(toneColor(style.Tone), glyph(style.Icon)),
				o.OrderID,
				o.Timestamp.Local().Format("2006-01-02 15:04"),
				price(o.Total),
				c.paint(toneColor(style.Tone), style.Label),
			)
		}
		return nil
	})
	return cmd
}

func (c *cli) printOrder(o api.Order) {
	style := views.StatusDisplay(o.Status)
	fmt.Fprintf(c.out, "%s %s  %s\n", c.paint(ansiBold, "Order"), o.OrderID, c.paint(toneColor(style.Tone), glyph(style.Icon)+" "+style.Label))
	c.info("Placed:   %s", o.Timestamp.Local().Format("2006-01-02 15:04"))
	c.info("Customer: %s <%s>", o.CustomerName, o.CustomerEmail)
	for _, it := range o.Items {
		fmt.Fprintf(c.out, "    %-40s %3d × %9s\n", it.Name, it.Quantity, price(it.Price))
	}
	c.info("Total:    %s", c.paint(ansiGreen, price(o.Total)))
}

func toneColor(tone string) string {
	switch tone {
	case "success":
		return ansiGreen
	case "info":
		return ansiBlue
	case "warning":
		return ansiYellow
	case "danger":
		return ansiRed
	}
	return ansiGray
}

var glyphs = map[string]string{
	"check": "✓",
	"truck": "➜",
	"box":   "■",
	"clock": "◷",
	"x":     "✗",
}

func glyph(icon string) string {
	if g, ok := glyphs[icon]; ok {
		return g
	}
	return "•"
}
