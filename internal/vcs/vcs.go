// SPDX-License-Identifier: MPL-2.0

// Package vcs wraps the git operations used by the release workflow.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrNotRepository is returned when no git repository contains the directory.
	ErrNotRepository = errors.New("not a git repository")
	// ErrDetachedHead is returned when HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")
	// ErrTagExists is returned when creating a tag that already exists.
	ErrTagExists = errors.New("tag already exists")
)

// Repo is a git working tree.
type Repo struct {
	repo *git.Repository
	root string

	// Signature overrides the author, committer and tagger. When nil the
	// git configuration is used.
	Signature *object.Signature
}

// Open opens the repository containing dir, searching parent directories.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return &Repo{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root() string { return r.root }

// TagExists reports whether a tag named name exists.
func (r *Repo) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, git.ErrTagNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to look up tag %s: %w", name, err)
	}
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// Commit stages paths and records a commit with msg. Paths may be absolute
// or relative to the working tree root.
func (r *Repo) Commit(msg string, paths ...string) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to open worktree: %w", err)
	}
	for _, p := range paths {
		rel, err := r.rel(p)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if _, err := wt.Add(rel); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("failed to stage %s: %w", rel, err)
		}
	}

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author:    r.Signature,
		Committer: r.Signature,
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to commit: %w", err)
	}
	return hash, nil
}

// CreateTag creates an annotated tag at HEAD.
func (r *Repo) CreateTag(name, msg string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Tagger:  r.Signature,
		Message: msg,
	})
	if errors.Is(err, git.ErrTagExists) {
		return fmt.Errorf("%w: %s", ErrTagExists, name)
	}
	if err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// Push pushes branch and tag to the named remote. Either may be empty.
func (r *Repo) Push(ctx context.Context, remoteName, branch, tag string) error {
	remote, err := r.repo.Remote(remoteName)
	if err != nil {
		return fmt.Errorf("failed to find remote %s: %w", remoteName, err)
	}

	var specs []config.RefSpec
	if branch != "" {
		ref := plumbing.NewBranchReferenceName(branch)
		specs = append(specs, config.RefSpec(ref+":"+ref))
	}
	if tag != "" {
		ref := plumbing.NewTagReferenceName(tag)
		specs = append(specs, config.RefSpec(ref+":"+ref))
	}
	if len(specs) == 0 {
		return nil
	}

	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   specs,
		Auth:       authFor(remote.Config().URLs),
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", remoteName, err)
	}
	return nil
}

func (r *Repo) rel(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p), nil
	}
	// Resolve symlinked temp dirs (macOS /var -> /private/var).
	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		root = r.root
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository %s", p, r.root)
	}
	return filepath.ToSlash(rel), nil
}
