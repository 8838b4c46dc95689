// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the shinc command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shinc",
		Short: "Bash CLI project manager using argc",
		Long: TitleStyle.Render("shinc") + SubtitleStyle.Render(" - Bash CLI project manager using argc") + `

shinc assembles shell scripts from a source tree, expanding
'# @include <path>' directives and stamping '# @meta version', then
compiles them into standalone CLIs with argc.

` + SubtitleStyle.Render("Quick Start:") + `
  1. shinc config generate     Create .shinc/config.toml
  2. Declare [[bins]] entries pointing at scripts under src/
  3. shinc build               Write target/bin/<bin>

` + SubtitleStyle.Render("Examples:") + `
  shinc build                  Build every configured bin
  shinc man                    Generate man pages for built bins
  shinc dist                   Archive target/bin and target/share
  shinc release 1.2.0          Bump, tag and push a release`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := newLogger(app.stderr, app.flags.verbose)
			slog.SetDefault(logger)
			slog.Debug("starting", "command", cmd.CommandPath(), "version", Version)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configFile, "config", "", "use only this config file over the built-in defaults")
	flags.StringVarP(&app.flags.chdir, "chdir", "C", "", "run as if shinc was started in `dir`")

	rootCmd.AddCommand(
		newBuildCommand(app),
		newCleanCommand(app),
		newConfigCommand(app),
		newCompletionsCommand(app),
		newDistCommand(app),
		newHomebrewCommand(app),
		newInstallShellCommand(app),
		newManCommand(app),
		newReleaseCommand(app),
		newCompletionCommand(),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the command tree with args and returns the process exit code.
func Run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	// fang's hidden "man" command would shadow shinc's own.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithoutManpage(),
		fang.WithErrorHandler(app.newErrorHandler()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Execute runs shinc with the process arguments and exits.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}
	os.Exit(Run(context.Background(), app, os.Args[1:]))
}
