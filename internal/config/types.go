// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// DistDirName is the directory under the target dir holding archives.
	DistDirName = "dist"
)

var (
	// ErrInvalidBinName is the sentinel error wrapped by InvalidBinNameError.
	ErrInvalidBinName = errors.New("invalid bin name")
	// ErrDuplicateBin is the sentinel error wrapped by DuplicateBinError.
	ErrDuplicateBin = errors.New("duplicate bin")
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMissingBinPath is returned when a [[bins]] entry has no path.
	ErrMissingBinPath = errors.New("bin path is required")
	// ErrNoBins is returned by commands that need at least one configured bin.
	ErrNoBins = errors.New("no bins configured")
)

type (
	// BinName is the name of a generated executable.
	BinName string

	// InvalidBinNameError is returned when a BinName is empty or contains
	// path separators. It wraps ErrInvalidBinName for errors.Is() compatibility.
	InvalidBinNameError struct {
		Value BinName
	}

	// DuplicateBinError is returned when two [[bins]] entries share a name.
	DuplicateBinError struct {
		Name BinName
	}

	// Version is a semantic version without the leading "v".
	Version string

	// InvalidVersionError is returned when a Version is not valid semver.
	InvalidVersionError struct {
		Value Version
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the project configuration.
	Config struct {
		Project ProjectConfig `json:"project" yaml:"project" toml:"project" mapstructure:"project"`
		Bins    []Bin         `json:"bins" yaml:"bins" toml:"bins" mapstructure:"bins"`
		Build   BuildConfig   `json:"build" yaml:"build" toml:"build" mapstructure:"build"`
		Dist    DistConfig    `json:"dist" yaml:"dist" toml:"dist" mapstructure:"dist"`
		Release ReleaseConfig `json:"release" yaml:"release" toml:"release" mapstructure:"release"`

		// Root is the project directory all relative paths resolve against.
		Root string `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
		// File is the highest-precedence config file that was loaded, if any.
		File string `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
	}

	// ProjectConfig describes the project being packaged.
	ProjectConfig struct {
		Name        string  `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
		Version     Version `json:"version" yaml:"version" toml:"version" mapstructure:"version"`
		Description string  `json:"description" yaml:"description" toml:"description" mapstructure:"description"`
		Homepage    string  `json:"homepage" yaml:"homepage" toml:"homepage" mapstructure:"homepage"`
		Repository  string  `json:"repository" yaml:"repository" toml:"repository" mapstructure:"repository"`
		License     string  `json:"license" yaml:"license" toml:"license" mapstructure:"license"`
	}

	// Bin maps an executable name to its entry script under the source dir.
	Bin struct {
		Name BinName `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
		Path string  `json:"path" yaml:"path" toml:"path" mapstructure:"path"`
	}

	// BuildConfig configures source and output locations.
	BuildConfig struct {
		SrcDir       string   `json:"src_dir" yaml:"src_dir" toml:"src_dir" mapstructure:"src_dir"`
		TargetDir    string   `json:"target_dir" yaml:"target_dir" toml:"target_dir" mapstructure:"target_dir"`
		ShfmtOptions []string `json:"shfmt_options" yaml:"shfmt_options" toml:"shfmt_options" mapstructure:"shfmt_options"`
	}

	// DistConfig configures release archives.
	DistConfig struct {
		Name    string   `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
		Include []string `json:"include" yaml:"include" toml:"include" mapstructure:"include"`
	}

	// ReleaseConfig configures the release workflow.
	ReleaseConfig struct {
		Changelog string `json:"changelog" yaml:"changelog" toml:"changelog" mapstructure:"changelog"`
	}
)

// String returns the bin name.
func (n BinName) String() string { return string(n) }

// IsValid returns whether the BinName can be used as a file name.
func (n BinName) IsValid() (bool, []error) {
	s := string(n)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return false, []error{&InvalidBinNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBinNameError.
func (e *InvalidBinNameError) Error() string {
	return fmt.Sprintf("invalid bin name %q: must be a plain file name", e.Value)
}

// Unwrap returns ErrInvalidBinName for errors.Is() compatibility.
func (e *InvalidBinNameError) Unwrap() error { return ErrInvalidBinName }

// Error implements the error interface for DuplicateBinError.
func (e *DuplicateBinError) Error() string {
	return fmt.Sprintf("bin %q is configured more than once", e.Name)
}

// Unwrap returns ErrDuplicateBin for errors.Is() compatibility.
func (e *DuplicateBinError) Unwrap() error { return ErrDuplicateBin }

// String returns the version.
func (v Version) String() string { return string(v) }

// Tag returns the git tag for the version ("v" + version).
func (v Version) Tag() string { return "v" + string(v) }

// IsValid returns whether the Version is a full MAJOR.MINOR.PATCH semver.
func (v Version) IsValid() (bool, []error) {
	s := string(v)
	// semver.IsValid accepts the "v1" and "v1.2" shorthands.
	core, _, _ := strings.Cut(s, "+")
	core, _, _ = strings.Cut(core, "-")
	if strings.Count(core, ".") != 2 || !semver.IsValid("v"+s) {
		return false, []error{&InvalidVersionError{Value: v}}
	}
	return true, nil
}

// Error implements the error interface for InvalidVersionError.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: need semantic version number", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// IsValid returns whether the Config has valid fields.
// An empty version is allowed; an empty bins list is checked by RequireBins.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if c.Project.Version != "" {
		if valid, fieldErrs := c.Project.Version.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	seen := make(map[BinName]bool, len(c.Bins))
	for _, b := range c.Bins {
		if valid, fieldErrs := b.Name.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
			continue
		}
		if strings.TrimSpace(b.Path) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingBinPath, b.Name))
		}
		if seen[b.Name] {
			errs = append(errs, &DuplicateBinError{Name: b.Name})
		}
		seen[b.Name] = true
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// RequireBins returns ErrNoBins when no [[bins]] entries are configured.
func (c *Config) RequireBins() error {
	if len(c.Bins) == 0 {
		return ErrNoBins
	}
	return nil
}

// ProjectName returns project.name, falling back to the project directory name.
func (c *Config) ProjectName() string {
	if c.Project.Name != "" {
		return c.Project.Name
	}
	return filepath.Base(c.Root)
}

// DistName returns dist.name, falling back to ProjectName.
func (c *Config) DistName() string {
	if c.Dist.Name != "" {
		return c.Dist.Name
	}
	return c.ProjectName()
}

// Bin returns the configured bin with the given name.
func (c *Config) Bin(name string) (Bin, bool) {
	for _, b := range c.Bins {
		if string(b.Name) == name {
			return b, true
		}
	}
	return Bin{}, false
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SrcDir is the directory bin paths and includes resolve against.
func (c *Config) SrcDir() string { return c.abs(c.Build.SrcDir) }

// TargetDir is the root of all generated artifacts.
func (c *Config) TargetDir() string { return c.abs(c.Build.TargetDir) }

// SourceFile is the entry script of bin.
func (c *Config) SourceFile(bin Bin) string {
	return filepath.Join(c.SrcDir(), filepath.FromSlash(bin.Path))
}

// BuildDir holds assembled scripts before compilation.
func (c *Config) BuildDir() string { return filepath.Join(c.TargetDir(), "build") }

// BuildFile is the assembled script for bin.
func (c *Config) BuildFile(name BinName) string {
	return filepath.Join(c.BuildDir(), string(name)+".sh")
}

// BinDir holds compiled executables.
func (c *Config) BinDir() string { return filepath.Join(c.TargetDir(), "bin") }

// BinFile is the compiled executable for bin.
func (c *Config) BinFile(name BinName) string {
	return filepath.Join(c.BinDir(), string(name))
}

// ShareDir holds man pages and completions.
func (c *Config) ShareDir() string { return filepath.Join(c.TargetDir(), "share") }

// ManDir holds generated man pages.
func (c *Config) ManDir() string { return filepath.Join(c.ShareDir(), "man") }

// CompletionsDir holds generated completion scripts for shell.
func (c *Config) CompletionsDir(shell string) string {
	return filepath.Join(c.ShareDir(), "completions", shell)
}

// DistDir holds release archives.
func (c *Config) DistDir() string { return filepath.Join(c.TargetDir(), DistDirName) }

// ChangelogFile is the changelog updated on release.
func (c *Config) ChangelogFile() string { return c.abs(c.Release.Changelog) }
