// SPDX-License-Identifier: MPL-2.0

package assembler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrMissingInclude is the sentinel wrapped by MissingIncludeError.
var ErrMissingInclude = errors.New("include file not found")

type (
	// Resolver maps an include path to the file contents.
	Resolver interface {
		Resolve(path string) (string, error)
	}

	// ResolverFunc adapts a function to the Resolver interface.
	ResolverFunc func(path string) (string, error)

	// DirResolver reads includes relative to a source root on disk.
	DirResolver struct {
		Root string
	}

	// MapResolver serves includes from memory.
	MapResolver map[string]string

	// MissingIncludeError is returned when an included file does not exist.
	// It wraps ErrMissingInclude for errors.Is() compatibility.
	MissingIncludeError struct {
		Path string // path as written in the directive
		Err  error  // underlying error, if any
	}
)

// Resolve calls f(path).
func (f ResolverFunc) Resolve(path string) (string, error) {
	return f(path)
}

// Resolve reads Root/path.
func (r DirResolver) Resolve(path string) (string, error) {
	full := filepath.Join(r.Root, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &MissingIncludeError{Path: path, Err: err}
		}
		return "", fmt.Errorf("failed to stat include %q: %w", path, err)
	}
	if info.IsDir() {
		return "", &MissingIncludeError{Path: path, Err: fmt.Errorf("%s is a directory", full)}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("failed to read include %q: %w", path, err)
	}
	return string(data), nil
}

// Resolve looks path up in the map.
func (m MapResolver) Resolve(path string) (string, error) {
	content, ok := m[path]
	if !ok {
		return "", &MissingIncludeError{Path: path}
	}
	return content, nil
}

func (e *MissingIncludeError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap returns ErrMissingInclude and the underlying cause.
func (e *MissingIncludeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingInclude}
	}
	return []error{ErrMissingInclude, e.Err}
}
