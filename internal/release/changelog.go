// SPDX-License-Identifier: MPL-2.0

package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// GitCliffBinary is the changelog generator looked up on PATH.
const GitCliffBinary = "git-cliff"

// ErrChangelogToolNotInstalled is returned when git-cliff is not on PATH.
var ErrChangelogToolNotInstalled = errors.New("git-cliff is not installed")

type (
	// Changelog regenerates the changelog for a new tag.
	Changelog interface {
		Update(ctx context.Context, tag, output string) error
	}

	// GitCliff runs git-cliff in Dir.
	GitCliff struct {
		Dir string
	}
)

// Update runs "git-cliff --tag <tag> --output <output>".
func (g GitCliff) Update(ctx context.Context, tag, output string) error {
	path, err := exec.LookPath(GitCliffBinary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChangelogToolNotInstalled, err)
	}
	cmd := exec.CommandContext(ctx, path, "--tag", tag, "--output", output)
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git-cliff failed: %w\n%s", err, msg)
		}
		return fmt.Errorf("git-cliff failed: %w", err)
	}
	return nil
}
