// SPDX-License-Identifier: MPL-2.0

// Package compiler drives the external argc tool, which turns an expanded
// script into a standalone one and generates man pages and completions.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultBinary is the argc executable name looked up on PATH.
	DefaultBinary = "argc"
	// TermWidthEnv is the environment variable argc reads for help text wrapping.
	TermWidthEnv = "TERM_WIDTH"
)

// ErrNotInstalled is returned when the argc executable cannot be found.
var ErrNotInstalled = errors.New("argc is not installed or not in PATH")

type (
	// Compiler is the black-box transform applied after assembly.
	Compiler interface {
		// Build compiles an expanded script into a standalone script.
		// termWidth <= 0 leaves the width unset.
		Build(ctx context.Context, source, binName string, termWidth int) (string, error)
		// Mangen returns man pages keyed by file name.
		Mangen(ctx context.Context, script, binName string) (map[string]string, error)
		// Completions returns a completion script for shell covering commands.
		Completions(ctx context.Context, shell string, commands []string) (string, error)
	}

	// Argc runs the argc executable.
	Argc struct {
		// Path is the resolved argc executable.
		Path string
	}

	// ExecError reports a failed argc invocation.
	ExecError struct {
		Args   []string
		Stderr string
		Err    error
	}
)

// NewArgc locates argc on PATH.
func NewArgc() (*Argc, error) {
	path, err := exec.LookPath(DefaultBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return &Argc{Path: path}, nil
}

// TermWidth reads TERM_WIDTH, returning 0 when it is unset or invalid.
func TermWidth() int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(TermWidthEnv)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Build implements Compiler.
func (a *Argc) Build(ctx context.Context, source, binName string, termWidth int) (string, error) {
	dir, err := os.MkdirTemp("", "shinc-build-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, binName)
	if err := os.WriteFile(script, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("failed to stage script: %w", err)
	}

	var env []string
	if termWidth > 0 {
		env = append(env, TermWidthEnv+"="+strconv.Itoa(termWidth))
	}
	return a.run(ctx, env, "--argc-build", script)
}

// Mangen implements Compiler.
func (a *Argc) Mangen(ctx context.Context, script, binName string) (map[string]string, error) {
	dir, err := os.MkdirTemp("", "shinc-man-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, binName)
	if err := os.WriteFile(src, []byte(script), 0o755); err != nil {
		return nil, fmt.Errorf("failed to stage script: %w", err)
	}
	outDir := filepath.Join(dir, "man")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create man dir: %w", err)
	}
	if _, err := a.run(ctx, nil, "--argc-mangen", src, outDir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read generated man pages: %w", err)
	}
	pages := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read man page %s: %w", e.Name(), err)
		}
		pages[e.Name()] = string(data)
	}
	return pages, nil
}

// Completions implements Compiler.
func (a *Argc) Completions(ctx context.Context, shell string, commands []string) (string, error) {
	args := append([]string{"--argc-completions", shell}, commands...)
	return a.run(ctx, nil, args...)
}

func (a *Argc) run(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.Path, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &ExecError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("argc %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *ExecError) Unwrap() error { return e.Err }
