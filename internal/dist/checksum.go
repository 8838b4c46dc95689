// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ChecksumSuffix is appended to an archive name for its checksum file.
const ChecksumSuffix = ".sha256"

var (
	// ErrChecksumNotFound indicates the requested filename has no entry.
	ErrChecksumNotFound = errors.New("checksum not found")

	errNoValidEntries = errors.New("no valid checksum entries found")
)

// ChecksumEntry is one "<sha256> <filename>" line.
type ChecksumEntry struct {
	Hash     string // lowercase hex SHA256
	Filename string
}

// String formats the entry the way WriteChecksum writes it.
func (e ChecksumEntry) String() string {
	return e.Hash + " " + e.Filename
}

// ParseChecksums reads checksum lines. Both the single-space form written by
// shinc and the sha256sum form ("hash  name" or "hash *name") are accepted;
// malformed lines are skipped.
func ParseChecksums(r io.Reader) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		hash, name, ok := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if !ok {
			continue
		}
		name = strings.TrimPrefix(strings.TrimSpace(name), "*")
		if name == "" || !isValidHexHash(hash) {
			continue
		}
		entries = append(entries, ChecksumEntry{
			Hash:     strings.ToLower(hash),
			Filename: name,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, errNoValidEntries
	}
	return entries, nil
}

// FindChecksum returns the hash recorded for filename.
func FindChecksum(entries []ChecksumEntry, filename string) (string, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrChecksumNotFound, filename)
}

// ComputeFileHash returns the lowercase hex SHA256 digest of the file at path.
func ComputeFileHash(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksum writes "<sha256> <filename>\n" to path.
func WriteChecksum(path string, entry ChecksumEntry) error {
	if err := os.WriteFile(path, []byte(entry.String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write checksum file: %w", err)
	}
	return nil
}

func isValidHexHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
