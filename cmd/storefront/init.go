package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nexora-dev/storefront/internal/config"
	"github.com/nexora-dev/storefront/internal/errors"
)

func initCmd(c *cli) *cobra.Command {
	var (
		dir       string
		useYAML   bool
		force     bool
		store     string
		userLevel bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write storefront.json (or storefront.yaml) with default settings.

Examples:
  storefront init
  storefront init --yaml --token-store sqlite
  storefront init --user-config --api-url https://shop.example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userLevel {
				dir = config.DefaultDir()
			}
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return errors.New("E120").Wrap(err)
				}
				dir = wd
			}

			name := config.ConfigFileName
			if useYAML {
				name = config.YAMLConfigFileName
			}
			path := filepath.Join(dir, name)
			if config.Exists(dir) && !force {
				return errors.Newf(errors.CategoryConfig, "configuration already exists in %s", dir).
					WithSuggestion("Use --force to overwrite it")
			}

			cfg := config.New()
			if c.apiURL != "" {
				cfg.APIURL = c.apiURL
			}
			if store != "" {
				cfg.TokenStore.Kind = store
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			c.success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to write to (default: current directory)")
	cmd.Flags().BoolVar(&userLevel, "user-config", false, "Write to the per-user config directory")
	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Write YAML instead of JSON")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	cmd.Flags().StringVar(&store, "token-store", "", "Token store (memory, file, sqlite, postgres, redis)")

	return cmd
}
