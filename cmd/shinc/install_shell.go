// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/render"
	"github.com/shinc/shinc/internal/shfmt"

	"github.com/spf13/cobra"
)

type installShellOptions struct {
	filename string
	raw      bool
}

// newInstallShellCommand creates the `shinc install-shell` command.
func newInstallShellCommand(app *App) *cobra.Command {
	var opts installShellOptions
	cmd := &cobra.Command{
		Use:   "install-shell",
		Short: "Generate the install shell script for the project",
		Long: `Generate the install shell script for the project.

The script downloads a release archive from project.repository, checks
its sha256 and unpacks it under a prefix. Unless --raw is given it is
compiled with argc, formatted and made executable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generateInstallShell(cmd.Context(), app, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.filename, "filename", "f", render.DefaultInstallFilename, "filename for the generated install script")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "write the script without compiling or formatting it")
	return cmd
}

func generateInstallShell(ctx context.Context, app *App, opts installShellOptions) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	data, err := render.NewInstallData(cfg)
	if err != nil {
		return err
	}
	var src bytes.Buffer
	if err := render.InstallScript(&src, data); err != nil {
		return err
	}

	target := opts.filename
	if !filepath.IsAbs(target) {
		target = filepath.Join(cfg.Root, target)
	}

	if opts.raw {
		if err := os.WriteFile(target, src.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write script to '%s': %w", target, err)
		}
	} else if err := compileInstallShell(ctx, app, src.String(), target, cfg.Build.ShfmtOptions); err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, h1("Generating install script"))
	fmt.Fprintln(app.stdout, relPath(cfg, target))
	return nil
}

func compileInstallShell(ctx context.Context, app *App, source, target string, shfmtOptions []string) error {
	formatter, err := shfmt.New(shfmtOptions)
	if err != nil {
		return err
	}
	comp, err := app.NewCompiler()
	if err != nil {
		return err
	}
	content, err := comp.Build(ctx, source, filepath.Base(target), compiler.TermWidth())
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(content), 0o755); err != nil {
		return fmt.Errorf("failed to write script to '%s': %w", target, err)
	}
	if err := os.Chmod(target, 0o755); err != nil {
		return fmt.Errorf("failed to set execute permission to '%s': %w", target, err)
	}
	if err := shfmt.FormatFile(formatter, target); err != nil {
		slog.Warn("failed to format install script", "path", target, "error", err)
	}
	return nil
}
