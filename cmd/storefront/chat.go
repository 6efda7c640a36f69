package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/pkg/views"
)

func chatCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the shopping assistant",
		Long: `Ask the shopping assistant a question.

With a message, print the reply and exit. Without one, start a
conversation; an empty line or "exit" ends it.

Examples:
  storefront chat what headphones do you have under 100
  storefront chat`,
	}
	cmd.RunE = c.action(func(ctx context.Context, s *client, args []string) error {
		page := views.NewChatPage(s.Deps())
		defer page.Unmount()
		page.Mount(ctx)

		if len(args) > 0 {
			msg, err := page.Send(ctx, strings.Join(args, " "))
			c.printReply(msg)
			if err != nil {
				s.Logger().Debug("chat failed", "error", err)
				return errShown
			}
			return nil
		}

		c.printReply(page.Messages()[0])
		fmt.Fprintf(c.out, "\n%s\n", c.paint(ansiGray, "Try asking:"))
		for _, q := range views.Suggestions {
			fmt.Fprintf(c.out, "  %s\n", c.paint(ansiGray, "• "+q))
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprintf(c.out, "\n%s ", c.paint(ansiBold, "you>"))
			if !in.Scan() {
				fmt.Fprintln(c.out)
				return in.Err()
			}
			line := strings.TrimSpace(in.Text())
			if line == "" || line == "exit" || line == "quit" {
				return nil
			}
			msg, err := page.Send(ctx, line)
			if err != nil {
				s.Logger().Debug("chat failed", "error", err)
			}
			c.printReply(msg)
			if ctx.Err() != nil {
				return nil
			}
		}
	})
	return cmd
}

func (c *cli) printReply(m views.Message) {
	if m.Content == "" {
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", c.paint(ansiCyan, "assistant>"), m.Content)
}
