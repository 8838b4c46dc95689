// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/release"

	"github.com/spf13/cobra"
)

// releaseReporter prints release progress in the CLI heading style.
type releaseReporter struct {
	w io.Writer
}

func (r releaseReporter) Heading(title string) { fmt.Fprintln(r.w, h1(title)) }

func (r releaseReporter) Info(text string) { fmt.Fprintln(r.w, text) }

// newReleaseCommand creates the `shinc release` command.
func newReleaseCommand(app *App) *cobra.Command {
	var opts release.Options
	cmd := &cobra.Command{
		Use:   "release <version>",
		Short: "Create a new release",
		Long: `Create a new release.

Sets project.version in the config file, regenerates the changelog with
git-cliff when it is installed, commits both files, creates an annotated
v<version> tag and pushes the branch and tag.`,
		Example: `  shinc release 1.2.0
  shinc release 1.2.0 --no-push
  shinc release 2.0.0-rc.1 --no-confirm --remote-name upstream`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Version = config.Version(args[0])
			return runRelease(cmd.Context(), app, opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.NoConfirm, "no-confirm", false, "skip release confirmation")
	flags.BoolVar(&opts.NoCommit, "no-commit", false, "do not commit changes")
	flags.BoolVar(&opts.NoTag, "no-tag", false, "do not create a tag")
	flags.BoolVar(&opts.NoPush, "no-push", false, "do not push to the remote repository")
	flags.StringVar(&opts.RemoteName, "remote-name", release.DefaultRemote, "git remote to push to")
	return cmd
}

func runRelease(ctx context.Context, app *App, opts release.Options) error {
	if valid, errs := opts.Version.IsValid(); !valid {
		return errors.Join(errs...)
	}
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	repo, err := app.OpenRepo(cfg.Root)
	if err != nil {
		return err
	}

	r := &release.Releaser{
		Config:    cfg,
		Repo:      repo,
		Prompter:  app.Prompter,
		Changelog: app.Changelog(cfg.Root),
		Reporter:  releaseReporter{w: app.stdout},
	}
	res, err := r.Release(ctx, opts)
	if errors.Is(err, release.ErrAborted) {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Aborted."))
		return nil
	}
	if err != nil {
		return err
	}
	if res.Pushed {
		fmt.Fprintf(app.stdout, "%s Released %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(res.Tag))
	}
	return nil
}
