// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/shinc/shinc/internal/build"
	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/shfmt"

	"github.com/spf13/cobra"
)

// newBuildCommand creates the `shinc build` command.
func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build [bin...]",
		Short: "Generate and build shell scripts",
		Long: `Generate and build shell scripts.

Each bin's entry script is expanded into target/build/<bin>.sh, with
'# @include' directives spliced in and '# @meta version' set to
project.version, then compiled by argc into target/bin/<bin>.

With no arguments every configured bin is built.`,
		ValidArgsFunction: completeBinNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, args)
		},
	}
}

func runBuild(ctx context.Context, app *App, args []string) error {
	cfg, err := app.loadBinsConfig(ctx)
	if err != nil {
		return err
	}
	bins, err := selectBins(cfg, args)
	if err != nil {
		return err
	}
	comp, err := app.NewCompiler()
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	b := &build.Builder{
		Config:    cfg,
		Compiler:  comp,
		Formatter: formatter,
		TermWidth: compiler.TermWidth(),
	}
	results, err := b.Build(ctx, bins)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintln(app.stdout, h1("Building "+CmdStyle.Render(res.Bin.Name.String())))
		fmt.Fprintln(app.stdout, relPath(cfg, res.BinFile))
	}
	return nil
}

// newFormatter builds the shell formatter from build.shfmt_options.
func newFormatter(cfg *config.Config) (shfmt.Formatter, error) {
	f, err := shfmt.New(cfg.Build.ShfmtOptions)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// completeBinNames completes configured bin names.
func completeBinNames(app *App) cobra.CompletionFunc {
	return func(cmd *cobra.Command, _ []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		cfg, err := app.loadConfig(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names := make([]cobra.Completion, 0, len(cfg.Bins))
		for _, b := range cfg.Bins {
			names = append(names, b.Name.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
