// SPDX-License-Identifier: MPL-2.0

// Package build turns configured bins into standalone executables:
// directive expansion into target/build, then argc compilation into
// target/bin.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"

	"github.com/shinc/shinc/internal/assembler"
	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/shfmt"
	"github.com/shinc/shinc/pkg/directive"

	"golang.org/x/sync/errgroup"
)

// ErrSourceNotFound is the sentinel wrapped by SourceNotFoundError.
var ErrSourceNotFound = errors.New("source script not found")

type (
	// Builder builds bins from a loaded project configuration.
	Builder struct {
		Config   *config.Config
		Compiler compiler.Compiler
		// Formatter formats the build and bin files; nil skips formatting.
		Formatter shfmt.Formatter
		// TermWidth is forwarded to the compiler; 0 leaves it unset.
		TermWidth int
		// Limit bounds concurrent bin builds; 0 means runtime.NumCPU().
		Limit int
	}

	// Result describes the artifacts produced for one bin.
	Result struct {
		Bin       config.Bin
		Source    string
		BuildFile string
		BinFile   string
	}

	// SourceNotFoundError is returned when a bin's entry script is missing.
	SourceNotFoundError struct {
		Bin  config.BinName
		Path string
	}

	// CompileError is returned when the compiler rejects an assembled script.
	CompileError struct {
		Bin       config.BinName
		BuildFile string
		Err       error
	}
)

// Build builds every bin concurrently. Results are returned in the order of
// bins. The first failure cancels builds that have not finished; every
// failure other than the resulting cancellations is reported.
func (b *Builder) Build(ctx context.Context, bins []config.Bin) ([]Result, error) {
	results := make([]Result, len(bins))
	errs := make([]error, len(bins))

	g, gctx := errgroup.WithContext(ctx)
	limit := b.Limit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	for i, bin := range bins {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			results[i], errs[i] = b.BuildBin(gctx, bin)
			return errs[i]
		})
	}
	if err := g.Wait(); err != nil {
		return nil, joinFailures(ctx, errs)
	}
	return results, nil
}

// joinFailures drops cancellations caused by a sibling failure.
func joinFailures(parent context.Context, errs []error) error {
	var failures []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if parent.Err() == nil && errors.Is(err, context.Canceled) {
			continue
		}
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

// BuildBin assembles and compiles a single bin.
func (b *Builder) BuildBin(ctx context.Context, bin config.Bin) (Result, error) {
	cfg := b.Config
	res := Result{
		Bin:       bin,
		Source:    cfg.SourceFile(bin),
		BuildFile: cfg.BuildFile(bin.Name),
		BinFile:   cfg.BinFile(bin.Name),
	}

	source, err := os.ReadFile(res.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, &SourceNotFoundError{Bin: bin.Name, Path: res.Source}
		}
		return res, fmt.Errorf("failed to load script at %s: %w", res.Source, err)
	}

	events, err := directive.Tokenize(string(source))
	if err != nil {
		return res, fmt.Errorf("%s: %w", res.Source, err)
	}

	slog.Debug("assemble", "bin", bin.Name, "src", res.Source, "dst", res.BuildFile)
	opts := assembler.Options{
		Resolver: assembler.DirResolver{Root: cfg.SrcDir()},
		Version:  string(cfg.Project.Version),
	}
	if err := assembler.WriteFile(res.BuildFile, events, opts); err != nil {
		return res, fmt.Errorf("%s: %w", res.Source, err)
	}
	b.format(res.BuildFile)

	expanded, err := os.ReadFile(res.BuildFile)
	if err != nil {
		return res, fmt.Errorf("failed to read build file: %w", err)
	}

	slog.Debug("compile", "bin", bin.Name, "src", res.BuildFile, "dst", res.BinFile)
	script, err := b.Compiler.Build(ctx, string(expanded), string(bin.Name), b.TermWidth)
	if err != nil {
		removeStale(res.BinFile)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, &CompileError{Bin: bin.Name, BuildFile: res.BuildFile, Err: err}
	}

	if err := os.MkdirAll(cfg.BinDir(), 0o755); err != nil {
		return res, fmt.Errorf("failed to create bin directory: %w", err)
	}
	if err := os.WriteFile(res.BinFile, []byte(script), 0o755); err != nil {
		removeStale(res.BinFile)
		return res, fmt.Errorf("failed to write script to %s: %w", res.BinFile, err)
	}
	b.format(res.BinFile)
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(res.BinFile, 0o755); err != nil {
		return res, fmt.Errorf("failed to set execute permission on %s: %w", res.BinFile, err)
	}
	return res, nil
}

// format formats path in place, logging instead of failing.
func (b *Builder) format(path string) {
	if b.Formatter == nil {
		return
	}
	if err := shfmt.FormatFile(b.Formatter, path); err != nil {
		slog.Warn("shfmt failed", "file", path, "error", err)
	}
}

func removeStale(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to remove stale bin file", "file", path, "error", err)
	}
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap returns ErrSourceNotFound for errors.Is() compatibility.
func (e *SourceNotFoundError) Unwrap() error { return ErrSourceNotFound }

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s: %v", e.BuildFile, e.Err)
}

// Unwrap returns the compiler error.
func (e *CompileError) Unwrap() error { return e.Err }
