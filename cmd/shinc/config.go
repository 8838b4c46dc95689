// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shinc/shinc/internal/config"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type (
	configListOptions struct {
		exists      bool
		withContent bool
	}

	configShowOptions struct {
		json bool
		yaml bool
	}
)

// newConfigCommand creates the `shinc config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shinc configuration",
		Long: `Manage shinc configuration.

Configuration layers, highest precedence first:
  - .shinc/config.toml in the project
  - config.toml in the user config directory
      Linux:   ~/.config/shinc/config.toml
      macOS:   ~/Library/Application Support/shinc/config.toml
      Windows: %APPDATA%\shinc\config.toml
  - built-in defaults

--config replaces both files with a single one.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var force bool
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the project configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateConfig(app, force)
		},
	}
	generateCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file after backing it up")

	var listOpts configListOptions
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listConfig(app, listOpts)
		},
	}
	listCmd.Flags().BoolVar(&listOpts.exists, "exists", false, "only list existing configuration files")
	listCmd.Flags().BoolVar(&listOpts.withContent, "with-content", false, "print configuration file contents")

	var showOpts configShowOptions
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, showOpts)
		},
	}
	showCmd.Flags().BoolVar(&showOpts.json, "json", false, "JSON output")
	showCmd.Flags().BoolVar(&showOpts.yaml, "yaml", false, "YAML output")
	showCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	cfgCmd.AddCommand(generateCmd, listCmd, showCmd)
	return cfgCmd
}

func generateConfig(app *App, force bool) error {
	opts, err := app.loadOptions()
	if err != nil {
		return err
	}
	files, err := config.ConfigFiles(opts)
	if err != nil {
		return err
	}
	path := files[0]

	backup, err := config.Generate(path, force)
	if errors.Is(err, config.ErrConfigExists) {
		return fmt.Errorf("%w '%s', use --force to overwrite", config.ErrConfigExists, path)
	}
	if err != nil {
		return err
	}
	if backup != "" {
		fmt.Fprintln(app.stdout, h1("Backing up"))
		fmt.Fprintf(app.stdout, "%s -> %s\n", path, backup)
	}
	fmt.Fprintln(app.stdout, h1("Generating"))
	fmt.Fprintln(app.stdout, path)
	return nil
}

func listConfig(app *App, opts configListOptions) error {
	loadOpts, err := app.loadOptions()
	if err != nil {
		return err
	}
	files, err := config.ConfigFiles(loadOpts)
	if err != nil {
		return err
	}

	i := 0
	for _, f := range files {
		content, readErr := os.ReadFile(f)
		exists := readErr == nil
		if !opts.exists || exists {
			i++
			fmt.Fprintf(app.stdout, "%d: %s\n", i, f)
		}
		if opts.withContent && exists {
			fmt.Fprintf(app.stdout, "%s\n\n", strings.TrimSpace(string(content)))
		}
	}
	return nil
}

func showConfig(ctx context.Context, app *App, opts configShowOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := marshalConfig(cfg, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, strings.TrimSpace(string(out)))
	return nil
}

// marshalConfig renders cfg as TOML unless JSON or YAML is requested.
func marshalConfig(cfg *config.Config, opts configShowOptions) ([]byte, error) {
	switch {
	case opts.json:
		return json.MarshalIndent(cfg, "", "  ")
	case opts.yaml:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	}
}
