// SPDX-License-Identifier: MPL-2.0

// Package release bumps the project version, regenerates the changelog,
// then commits, tags and pushes the result.
package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shinc/shinc/internal/config"

	"github.com/go-git/go-git/v5/plumbing"
)

// DefaultRemote is the remote pushed to when none is given.
const DefaultRemote = "origin"

var (
	// ErrAborted is returned when the user declines a confirmation prompt.
	ErrAborted = errors.New("release aborted")
	// ErrNoConfigFile is returned when there is no config file to bump.
	ErrNoConfigFile = errors.New("no config file to update")
	// ErrTagExists is the sentinel wrapped by TagExistsError.
	ErrTagExists = errors.New("tag already exists")
)

type (
	// Repository is the git working tree a release is cut from.
	Repository interface {
		TagExists(name string) (bool, error)
		CurrentBranch() (string, error)
		Commit(msg string, paths ...string) (plumbing.Hash, error)
		CreateTag(name, msg string) error
		Push(ctx context.Context, remote, branch, tag string) error
	}

	// Prompter asks the user a yes/no question.
	Prompter interface {
		Confirm(ctx context.Context, title string) (bool, error)
	}

	// Reporter receives progress output.
	Reporter interface {
		Heading(title string)
		Info(text string)
	}

	// Options selects which release steps run.
	Options struct {
		Version    config.Version
		NoConfirm  bool
		NoCommit   bool
		NoTag      bool
		NoPush     bool
		RemoteName string
	}

	// Releaser runs the release workflow for one project.
	Releaser struct {
		Config    *config.Config
		Repo      Repository
		Prompter  Prompter
		Changelog Changelog
		Reporter  Reporter
	}

	// Result records what a release did.
	Result struct {
		Version   config.Version
		Tag       string
		Branch    string
		Message   string
		Commit    plumbing.Hash
		Committed bool
		Tagged    bool
		Pushed    bool
	}

	// TagExistsError is returned when the release tag is already present.
	TagExistsError struct {
		Tag string
	}
)

func (e *TagExistsError) Error() string {
	return fmt.Sprintf("the tag '%s' already exists", e.Tag)
}

// Unwrap returns ErrTagExists for errors.Is() compatibility.
func (e *TagExistsError) Unwrap() error { return ErrTagExists }

// Message returns the commit and tag message for a release.
func Message(names string, version config.Version) string {
	return fmt.Sprintf("chore: Release %s %s", names, version)
}

// Release runs the workflow described by opts.
func (r *Releaser) Release(ctx context.Context, opts Options) (Result, error) {
	res := Result{Version: opts.Version, Tag: opts.Version.Tag()}

	if valid, errs := opts.Version.IsValid(); !valid {
		return res, errors.Join(errs...)
	}
	if r.Config.File == "" {
		return res, ErrNoConfigFile
	}
	remote := opts.RemoteName
	if remote == "" {
		remote = DefaultRemote
	}

	exists, err := r.Repo.TagExists(res.Tag)
	if err != nil {
		return res, err
	}
	if exists {
		return res, &TagExistsError{Tag: res.Tag}
	}

	if res.Branch, err = r.Repo.CurrentBranch(); err != nil {
		return res, err
	}
	names := binNames(r.Config)
	res.Message = Message(names, opts.Version)

	if !opts.NoConfirm {
		for _, prompt := range []string{
			fmt.Sprintf("Release %s %s", names, opts.Version),
			"Branch: " + res.Branch,
		} {
			if err := r.confirm(ctx, prompt); err != nil {
				return res, err
			}
		}
	}

	r.heading("Git info")
	r.info(fmt.Sprintf("Version: %s\nTag: %s\nBranch: %s", opts.Version, res.Tag, res.Branch))

	r.heading("Updating version")
	if err := config.SetProjectVersion(r.Config.File, opts.Version); err != nil {
		return res, err
	}
	r.Config.Project.Version = opts.Version

	changelog := r.Config.ChangelogFile()
	r.heading("Updating changelog")
	if err := r.Changelog.Update(ctx, res.Tag, changelog); err != nil {
		if !errors.Is(err, ErrChangelogToolNotInstalled) {
			return res, err
		}
		slog.Warn("skipping changelog update", "error", err)
	}

	if opts.NoCommit {
		return res, nil
	}
	r.heading("Committing changes")
	paths := []string{r.Config.File}
	if _, err := os.Stat(changelog); err == nil {
		paths = append([]string{changelog}, paths...)
	}
	if res.Commit, err = r.Repo.Commit(res.Message, paths...); err != nil {
		return res, err
	}
	res.Committed = true

	if opts.NoTag {
		return res, nil
	}
	r.heading("Creating tag")
	if err := r.Repo.CreateTag(res.Tag, res.Message); err != nil {
		return res, err
	}
	res.Tagged = true

	if opts.NoPush {
		return res, nil
	}
	r.heading("Pushing commits and tag")
	if err := r.Repo.Push(ctx, remote, res.Branch, res.Tag); err != nil {
		return res, err
	}
	res.Pushed = true
	return res, nil
}

func (r *Releaser) confirm(ctx context.Context, prompt string) error {
	ok, err := r.Prompter.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

func (r *Releaser) heading(title string) {
	if r.Reporter != nil {
		r.Reporter.Heading(title)
	}
}

func (r *Releaser) info(text string) {
	if r.Reporter != nil {
		r.Reporter.Info(text)
	}
}

func binNames(cfg *config.Config) string {
	names := make([]string, len(cfg.Bins))
	for i, b := range cfg.Bins {
		names[i] = string(b.Name)
	}
	return strings.Join(names, " ")
}
