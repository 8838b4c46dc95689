// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// BackupSuffix is appended to a config file path for backups and atomic writes.
const BackupSuffix = ".bak"

// ErrConfigExists is returned by Generate when the target exists and force is unset.
var ErrConfigExists = errors.New("config file already exists")

// Generate writes the default configuration to path. An existing file is
// only replaced when force is set, after being copied to path+".bak"; the
// backup path is returned in that case.
func Generate(path string, force bool) (backup string, err error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && !force:
		return "", fmt.Errorf("%w: %s", ErrConfigExists, path)
	case err == nil:
		backup = path + BackupSuffix
		if err := os.WriteFile(backup, existing, 0o644); err != nil {
			return "", fmt.Errorf("failed to back up config file: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, defaultConfig, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return backup, nil
}

// SetProjectVersion rewrites project.version in the TOML file at path.
// A string value already present is replaced in place so comments and
// layout survive; otherwise the document is re-encoded.
func SetProjectVersion(path string, version Version) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	out, ok, err := replaceProjectVersion(data, version)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !ok {
		if out, err = reencodeWithVersion(data, version); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return atomicWrite(path, out)
}

func replaceProjectVersion(data []byte, version Version) ([]byte, bool, error) {
	var p unstable.Parser
	p.Reset(data)

	var table []string
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			table = keyParts(e.Key())
		case unstable.KeyValue:
			full := append(append([]string{}, table...), keyParts(e.Key())...)
			if strings.Join(full, ".") != "project.version" {
				continue
			}
			v := e.Value()
			if v.Kind != unstable.String {
				return nil, false, fmt.Errorf("project.version must be a string, got %s", v.Kind)
			}
			start := int(v.Raw.Offset)
			end := start + int(v.Raw.Length)
			out := make([]byte, 0, len(data)+len(version))
			out = append(out, data[:start]...)
			out = append(out, strconv.Quote(string(version))...)
			out = append(out, data[end:]...)
			return out, true, nil
		}
	}
	if err := p.Error(); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func reencodeWithVersion(data []byte, version Version) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	project, _ := doc["project"].(map[string]any)
	if project == nil {
		project = map[string]any{}
	}
	project["version"] = string(version)
	doc["project"] = project
	return toml.Marshal(doc)
}

// atomicWrite writes to path+".bak" and renames it over path.
func atomicWrite(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp := path + BackupSuffix
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
