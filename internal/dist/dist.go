// SPDX-License-Identifier: MPL-2.0

// Package dist packages built bins, generated docs and extra files into a
// release archive with a checksum file next to it.
package dist

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinc/shinc/internal/config"

	"github.com/klauspost/compress/gzip"
)

// ErrNoVersion is returned when project.version is empty.
var ErrNoVersion = errors.New("project.version is required to name the archive")

// Result describes the files written by Create.
type Result struct {
	Archive  string
	Checksum string
	Entry    ChecksumEntry
	// Skipped lists sources that did not exist.
	Skipped []string
}

// ArchiveName returns "<dist name>-v<version>.tar.gz".
func ArchiveName(cfg *config.Config) string {
	return fmt.Sprintf("%s-%s.tar.gz", cfg.DistName(), cfg.Project.Version.Tag())
}

// Sources returns the paths archived for cfg: the bin and share dirs, then
// every dist.include path.
func Sources(cfg *config.Config) []string {
	sources := []string{cfg.BinDir(), cfg.ShareDir()}
	for _, p := range cfg.Dist.Include {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Root, filepath.FromSlash(p))
		}
		sources = append(sources, p)
	}
	return sources
}

// Create writes the archive and its checksum file into the dist dir.
func Create(ctx context.Context, cfg *config.Config) (_ Result, err error) {
	if cfg.Project.Version == "" {
		return Result{}, ErrNoVersion
	}

	name := ArchiveName(cfg)
	res := Result{
		Archive:  filepath.Join(cfg.DistDir(), name),
		Checksum: filepath.Join(cfg.DistDir(), name+ChecksumSuffix),
	}
	if err := os.MkdirAll(cfg.DistDir(), 0o755); err != nil {
		return res, fmt.Errorf("failed to create dist directory: %w", err)
	}

	tmp, err := os.CreateTemp(cfg.DistDir(), "."+name+".*")
	if err != nil {
		return res, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	a := &archiver{targetDir: cfg.TargetDir(), root: cfg.Root}
	if res.Skipped, err = a.write(ctx, tmp, Sources(cfg)); err != nil {
		return res, err
	}
	if err = tmp.Close(); err != nil {
		return res, fmt.Errorf("failed to close archive: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return res, fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), res.Archive); err != nil {
		return res, fmt.Errorf("failed to write archive: %w", err)
	}

	sum, err := ComputeFileHash(res.Archive)
	if err != nil {
		return res, err
	}
	res.Entry = ChecksumEntry{Hash: sum, Filename: name}
	if err := WriteChecksum(res.Checksum, res.Entry); err != nil {
		return res, err
	}
	return res, nil
}

type archiver struct {
	targetDir string
	root      string
	tw        *tar.Writer
}

// write streams a gzipped tarball of sources to w.
func (a *archiver) write(ctx context.Context, w io.Writer, sources []string) (skipped []string, err error) {
	gz := gzip.NewWriter(w)
	a.tw = tar.NewWriter(gz)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		if _, statErr := os.Lstat(src); errors.Is(statErr, fs.ErrNotExist) {
			slog.Warn("path not found, skipping", "path", src)
			skipped = append(skipped, src)
			continue
		}
		if err := a.addTree(ctx, src); err != nil {
			return skipped, err
		}
	}

	if err := a.tw.Close(); err != nil {
		return skipped, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return skipped, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return skipped, nil
}

// archiveName maps a path on disk to its name inside the archive: relative
// to the target dir when under it, else relative to the project root, else
// the base name.
func (a *archiver) archiveName(path string) string {
	for _, base := range []string{a.targetDir, a.root} {
		if base == "" {
			continue
		}
		rel, err := filepath.Rel(base, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}

func (a *archiver) addTree(ctx context.Context, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}
		return a.addFile(path, info)
	})
}

func (a *archiver) addFile(path string, info fs.FileInfo) error {
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		var err error
		if link, err = os.Readlink(path); err != nil {
			return fmt.Errorf("failed to read link %s: %w", path, err)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to create tar header for %s: %w", path, err)
	}
	header.Name = a.archiveName(path)
	if info.IsDir() {
		header.Name += "/"
	}
	// Drop host-specific ownership.
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "", ""

	if err := a.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()
	if _, err := io.Copy(a.tw, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}
