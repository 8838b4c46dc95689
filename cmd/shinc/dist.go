// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/shinc/shinc/internal/dist"

	"github.com/spf13/cobra"
)

// newDistCommand creates the `shinc dist` command.
func newDistCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dist",
		Short: "Create a distribution archive",
		Long: `Create a distribution archive.

target/bin, target/share and every dist.include path are packed into
target/dist/<name>-v<version>.tar.gz, next to a <archive>.sha256 file.
Missing paths are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			res, err := dist.Create(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, h1("Archiving files"))
			fmt.Fprintln(app.stdout, relPath(cfg, res.Archive))
			fmt.Fprintln(app.stdout, h1("Generating sha256sum"))
			fmt.Fprintln(app.stdout, relPath(cfg, res.Checksum))
			return nil
		},
	}
}
