// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shinc/shinc/internal/render"

	"github.com/spf13/cobra"
)

type formulaOptions struct {
	name      string
	outputDir string
}

// newHomebrewCommand creates the `shinc homebrew` command tree.
func newHomebrewCommand(app *App) *cobra.Command {
	brewCmd := &cobra.Command{
		Use:   "homebrew",
		Short: "Generate Homebrew files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var opts formulaOptions
	formulaCmd := &cobra.Command{
		Use:   "formula",
		Short: "Generate a Homebrew formula",
		Long: `Generate a Homebrew formula for the release archive of project.version.

The archive URL is derived from project.repository and its sha256 is read
from the published .sha256 file, or computed from the archive itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateFormula(cmd.Context(), app, opts)
		},
	}
	formulaCmd.Flags().StringVar(&opts.name, "name", "", "formula name (default is the dist name)")
	formulaCmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "write the formula file to `dir` instead of stdout")
	_ = formulaCmd.MarkFlagDirname("output-dir")

	brewCmd.AddCommand(formulaCmd)
	return brewCmd
}

func generateFormula(ctx context.Context, app *App, opts formulaOptions) (err error) {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	data := render.NewFormulaData(cfg, opts.name)
	if data.URL != "" {
		sum, sumErr := app.Checksums.SHA256(ctx, data.URL)
		if sumErr != nil {
			slog.Error("failed to calculate sha256", "url", data.URL, "error", sumErr)
		}
		data.Checksum = sum
	}

	if opts.outputDir == "" {
		return render.Formula(app.stdout, data)
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(opts.outputDir, data.Filename())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create formula file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if err := render.Formula(f, data); err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, h1("Generating formula"))
	fmt.Fprintln(app.stdout, path)
	return nil
}
