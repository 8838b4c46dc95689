// SPDX-License-Identifier: MPL-2.0

package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shinc/shinc/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "shinc"
	// ProjectDirName is the per-project directory holding the project config file.
	ProjectDirName = ".shinc"
	// ConfigFileName is the name of every config file layer.
	ConfigFileName = "config.toml"
	// MaxFileSize bounds config files read from disk.
	MaxFileSize = 1 << 20
)

var (
	//go:embed default.toml
	defaultConfig []byte

	//go:embed config_schema.cue
	configSchema string
)

// DefaultTOML returns the built-in configuration written by "config generate".
func DefaultTOML() []byte {
	return bytes.Clone(defaultConfig)
}

// ConfigDir returns the shinc user configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ProjectConfigFile returns the project-level config file under root.
func ProjectConfigFile(root string) string {
	return filepath.Join(root, ProjectDirName, ConfigFileName)
}

// UserConfigFile returns the user-level config file.
func UserConfigFile(configDirPath string) (string, error) {
	dir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// ConfigFiles lists the config file layers in precedence order, highest
// first. Files are listed whether or not they exist.
func ConfigFiles(opts LoadOptions) ([]string, error) {
	if opts.ConfigFilePath != "" {
		return []string{opts.ConfigFilePath}, nil
	}
	root, err := opts.root()
	if err != nil {
		return nil, err
	}
	user, err := UserConfigFile(opts.ConfigDirPath)
	if err != nil {
		return nil, err
	}
	return []string{ProjectConfigFile(root), user}, nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	root, err := opts.root()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("internal error: failed to read default config: %w", err)
	}

	if opts.ConfigFilePath != "" && !fileExists(opts.ConfigFilePath) {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'shinc config generate' to create a project config").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	files, err := ConfigFiles(opts)
	if err != nil {
		return nil, err
	}

	resolvedPath := ""
	// Lowest precedence first so later layers override earlier ones.
	for i := len(files) - 1; i >= 0; i-- {
		path := files[i]
		if !fileExists(path) {
			continue
		}
		if err := loadTOMLIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid TOML").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'shinc config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
		resolvedPath = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Root = root
	cfg.File = resolvedPath

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Give every [[bins]] entry a unique plain file name").
			WithSuggestion("Use a MAJOR.MINOR.PATCH version such as 0.1.0").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadTOMLIntoViper parses a TOML file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%s: file size %d exceeds limit of %d bytes", path, len(data), MaxFileSize)
	}

	var configMap map[string]any
	if err := toml.Unmarshal(data, &configMap); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := validateSchema(configMap, path); err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// validateSchema unifies a decoded layer with #Config.
// Concrete(false) because every field is optional in a single layer.
func validateSchema(configMap map[string]any, path string) error {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.Encode(configMap)
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
