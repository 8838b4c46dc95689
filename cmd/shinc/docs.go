// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/shinc/shinc/internal/docs"

	"github.com/spf13/cobra"
)

// newCompletionsCommand creates the `shinc completions` command.
func newCompletionsCommand(app *App) *cobra.Command {
	var shells []string
	cmd := &cobra.Command{
		Use:   "completions [bin...]",
		Short: "Generate shell completion scripts for the bins",
		Long: `Generate shell completion scripts for the bins.

Scripts are written to target/share/completions/<shell>/ for every
configured bin and every requested shell (all shells by default).`,
		ValidArgsFunction: completeBinNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]docs.Shell, 0, len(shells))
			for _, s := range shells {
				shell, err := docs.ParseShell(s)
				if err != nil {
					return err
				}
				parsed = append(parsed, shell)
			}

			cfg, err := app.loadBinsConfig(cmd.Context())
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

			fmt.Fprintln(app.stdout, h1("Generating completions"))
			gen := &docs.Generator{Config: cfg, Compiler: comp}
			written, err := gen.Completions(cmd.Context(), bins, parsed)
			for _, path := range written {
				fmt.Fprintln(app.stdout, relPath(cfg, path))
			}
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&shells, "shell", "s", shellNames(), "shells to generate completions for")
	_ = cmd.RegisterFlagCompletionFunc("shell", cobra.FixedCompletions(shellNames(), cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// newManCommand creates the `shinc man` command.
func newManCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "man [bin...]",
		Short: "Generate man pages",
		Long: `Generate man pages for built bins into target/share/man.

Run 'shinc build' first: pages are generated from target/bin/<bin>.`,
		ValidArgsFunction: completeBinNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadBinsConfig(cmd.Context())
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

			fmt.Fprintln(app.stdout, h1("Generating man pages"))
			gen := &docs.Generator{Config: cfg, Compiler: comp}
			written, err := gen.Man(cmd.Context(), bins)
			for _, path := range written {
				fmt.Fprintln(app.stdout, relPath(cfg, path))
			}
			return err
		},
	}
}

func shellNames() []string {
	shells := docs.Shells()
	names := make([]string, len(shells))
	for i, s := range shells {
		names[i] = s.String()
	}
	return names
}
