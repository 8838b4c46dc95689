// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCleanCommand creates the `shinc clean` command.
func newCleanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated artifacts",
		Long:  "Remove the target directory with every build file, bin, man page, completion script and archive.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			target := cfg.TargetDir()
			fmt.Fprintln(app.stdout, h1("Cleaning"))
			fmt.Fprintln(app.stdout, relPath(cfg, target))
			if err := os.RemoveAll(target); err != nil {
				return fmt.Errorf("failed to remove %s: %w", target, err)
			}
			return nil
		},
	}
}
