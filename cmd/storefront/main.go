package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/errors"
)

// Version information set at build time.
var (
	commit = "none"
	date   = "unknown"
)

const banner = `
  ┌┐┌┌─┐─┐ ┬┌─┐┬─┐┌─┐
  │││├┤ ┌┴┬┘│ │├┬┘├─┤
  ┘└┘└─┘┴ └─└─┘┴└─┴ ┴
`

// errShown marks a failure the user has already seen as a toast.
var errShown = stderrors.New("storefront: failure already reported")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{}
	rootCmd := c.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if !stderrors.Is(err, errShown) {
			errors.FprintError(stderr, err)
		}
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Shop the Nexora storefront from your terminal",
		Long: `storefront is a terminal client for the Nexora storefront.

Browse the catalog, manage your cart and wishlist, check out,
track orders and ask the shopping assistant. Your login is kept
in the configured token store and restored on every run.

  • Session restored from memory, a file, SQLite, PostgreSQL or Redis
  • Cart, wishlist and orders kept in step with the backend
  • AI search, recommendations and chat
  • A local development backend for trying it all out`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.out = cmd.OutOrStdout()
			c.errOut = cmd.ErrOrStderr()
			if c.noColor {
				errors.DisableColors()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to storefront.json or storefront.yaml")
	flags.StringVar(&c.apiURL, "api-url", "", "Backend URL (overrides config)")
	flags.BoolVar(&c.ephemeral, "ephemeral", false, "Keep the session in memory for this run only")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		loginCmd(c),
		signupCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		profileCmd(c),
		productsCmd(c),
		productCmd(c),
		searchCmd(c),
		recommendCmd(c),
		cartCmd(c),
		checkoutCmd(c),
		ordersCmd(c),
		wishlistCmd(c),
		chatCmd(c),
		devBackendCmd(c),
		initCmd(c),
		versionCmd(c),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func (c *cli) printBanner() {
	fmt.Fprint(c.out, c.paint(ansiCyan, banner))
}

// success prints a success message.
func (c *cli) success(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint(ansiGreen, "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func (c *cli) info(format string, args ...any) {
	fmt.Fprintf(c.out, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func (c *cli) warn(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", c.paint(ansiYellow, "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func (c *cli) errorMsg(format string, args ...any) {
	fmt.Fprintf(c.errOut, "%s %s\n", c.paint(ansiRed, "✗"), fmt.Sprintf(format, args...))
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

func (c *cli) paint(code, text string) string {
	if c.noColor {
		return text
	}
	return code + text + ansiReset
}
