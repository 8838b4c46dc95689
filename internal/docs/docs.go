// SPDX-License-Identifier: MPL-2.0

// Package docs generates man pages and shell completion scripts for built
// bins through the compiler.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/config"
)

// ErrBinNotBuilt is returned when man pages are requested for a missing bin file.
var ErrBinNotBuilt = errors.New("bin file not found")

// Generator writes generated docs under the project's share dir.
type Generator struct {
	Config   *config.Config
	Compiler compiler.Compiler
}

// Man writes the man pages of every bin and returns the written paths.
// Bins must be built first.
func (g *Generator) Man(ctx context.Context, bins []config.Bin) ([]string, error) {
	var written []string
	for _, bin := range bins {
		files, err := g.man(ctx, bin)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (g *Generator) man(ctx context.Context, bin config.Bin) ([]string, error) {
	binFile := g.Config.BinFile(bin.Name)
	script, err := os.ReadFile(binFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBinNotBuilt, binFile)
		}
		return nil, err
	}

	pages, err := g.Compiler.Mangen(ctx, string(script), string(bin.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to generate man pages for %s: %w", bin.Name, err)
	}
	if err := os.MkdirAll(g.Config.ManDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create man directory: %w", err)
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	slices.Sort(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(g.Config.ManDir(), filepath.Base(name))
		if err := os.WriteFile(path, []byte(pages[name]), 0o644); err != nil {
			return written, fmt.Errorf("failed to write '%s': %w", path, err)
		}
		slog.Debug("write man page", "bin", bin.Name, "file", path)
		written = append(written, path)
	}
	return written, nil
}

// Completions writes one completion script per bin and shell and returns
// the written paths.
func (g *Generator) Completions(ctx context.Context, bins []config.Bin, shells []Shell) ([]string, error) {
	var written []string
	for _, bin := range bins {
		for _, shell := range shells {
			path, err := g.completion(ctx, bin, shell)
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func (g *Generator) completion(ctx context.Context, bin config.Bin, shell Shell) (string, error) {
	commands := []string{compiler.DefaultBinary, string(bin.Name)}
	content, err := g.Compiler.Completions(ctx, string(shell), commands)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s completions for %s: %w", shell, bin.Name, err)
	}
	if shell == Zsh {
		content = EnsureCompdef(content, commands)
	}

	dir := g.Config.CompletionsDir(string(shell))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create completions directory: %w", err)
	}
	path := filepath.Join(dir, shell.FileName(string(bin.Name)))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write script to '%s': %w", path, err)
	}
	return path, nil
}

// EnsureCompdef prefixes content with a "#compdef" line naming commands
// unless its first line already is one; zsh only autoloads such files.
func EnsureCompdef(content string, commands []string) string {
	first, _, _ := strings.Cut(content, "\n")
	if strings.HasPrefix(first, "#compdef ") {
		return content
	}
	return "#compdef " + strings.Join(commands, " ") + "\n\n" + content
}
