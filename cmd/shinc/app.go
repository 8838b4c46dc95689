// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shinc/shinc/internal/compiler"
	"github.com/shinc/shinc/internal/config"
	"github.com/shinc/shinc/internal/release"
	"github.com/shinc/shinc/internal/render"
	"github.com/shinc/shinc/internal/vcs"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra command handler receives an App and
	// reaches configuration, the compiler and git through it.
	App struct {
		Config      ConfigProvider
		NewCompiler func() (compiler.Compiler, error)
		Prompter    release.Prompter
		OpenRepo    func(dir string) (release.Repository, error)
		Changelog   func(root string) release.Changelog
		Checksums   ChecksumFetcher
		stdout      io.Writer
		stderr      io.Writer

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		NewCompiler func() (compiler.Compiler, error)
		Prompter    release.Prompter
		OpenRepo    func(dir string) (release.Repository, error)
		Changelog   func(root string) release.Changelog
		Checksums   ChecksumFetcher
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ChecksumFetcher returns the SHA-256 of a published release asset.
	ChecksumFetcher interface {
		SHA256(ctx context.Context, assetURL string) (string, error)
	}

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		verbose    bool
		configFile string
		chdir      string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewCompiler == nil {
		deps.NewCompiler = func() (compiler.Compiler, error) {
			return compiler.NewArgc()
		}
	}
	if deps.Prompter == nil {
		deps.Prompter = &release.HuhPrompter{In: os.Stdin, Out: deps.Stderr}
	}
	if deps.OpenRepo == nil {
		deps.OpenRepo = func(dir string) (release.Repository, error) {
			return vcs.Open(dir)
		}
	}
	if deps.Changelog == nil {
		deps.Changelog = func(root string) release.Changelog {
			return release.GitCliff{Dir: root}
		}
	}
	if deps.Checksums == nil {
		deps.Checksums = render.NewFetcher(
			render.WithUserAgent("shinc/"+Version),
			render.WithToken(os.Getenv("GITHUB_TOKEN")),
		)
	}

	return &App{
		Config:      deps.Config,
		NewCompiler: deps.NewCompiler,
		Prompter:    deps.Prompter,
		OpenRepo:    deps.OpenRepo,
		Changelog:   deps.Changelog,
		Checksums:   deps.Checksums,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}, nil
}

// loadOptions turns the persistent flags into config load options. A
// relative --config path is taken relative to --chdir.
func (a *App) loadOptions() (config.LoadOptions, error) {
	var opts config.LoadOptions
	if a.flags.chdir != "" {
		dir, err := filepath.Abs(a.flags.chdir)
		if err != nil {
			return opts, fmt.Errorf("failed to resolve --chdir: %w", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return opts, fmt.Errorf("invalid --chdir: %w", err)
		}
		if !info.IsDir() {
			return opts, fmt.Errorf("invalid --chdir: %s is not a directory", dir)
		}
		opts.WorkDir = dir
	}
	if f := a.flags.configFile; f != "" {
		if !filepath.IsAbs(f) && opts.WorkDir != "" {
			f = filepath.Join(opts.WorkDir, f)
		}
		opts.ConfigFilePath = f
	}
	return opts, nil
}

// loadConfig loads the effective configuration.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	opts, err := a.loadOptions()
	if err != nil {
		return nil, err
	}
	return a.Config.Load(ctx, opts)
}

// loadBinsConfig loads the configuration and requires at least one bin.
func (a *App) loadBinsConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireBins(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectBins returns the bins named in args, or every bin when args is empty.
func selectBins(cfg *config.Config, args []string) ([]config.Bin, error) {
	if len(args) == 0 {
		return cfg.Bins, nil
	}
	bins := make([]config.Bin, 0, len(args))
	for _, name := range args {
		bin, ok := cfg.Bin(name)
		if !ok {
			return nil, fmt.Errorf("unknown bin %q", name)
		}
		bins = append(bins, bin)
	}
	return bins, nil
}

// relPath shortens p for display relative to the project root.
func relPath(cfg *config.Config, p string) string {
	if rel, err := filepath.Rel(cfg.Root, p); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return p
}
