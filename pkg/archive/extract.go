// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultMaxBytes bounds the total size of extracted regular files (512 MB).
const DefaultMaxBytes int64 = 512 << 20

var (
	// ErrUnsafePath is returned for entries that would land outside the
	// extraction root.
	ErrUnsafePath = errors.New("archive entry escapes extraction root")

	// ErrTooLarge is returned when the extracted content exceeds the limit.
	ErrTooLarge = errors.New("archive exceeds size limit")
)

type (
	// UnsafePathError names the offending archive entry.
	UnsafePathError struct {
		Name string
	}

	// Stats summarizes one extraction.
	Stats struct {
		Files   int
		Dirs    int
		Skipped int
		Bytes   int64
	}

	extractOptions struct {
		maxBytes int64
	}

	// Option configures ExtractTarGz.
	Option func(*extractOptions)
)

// Error implements the error interface.
func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("archive entry %q escapes extraction root", e.Name)
}

// Unwrap returns ErrUnsafePath.
func (e *UnsafePathError) Unwrap() error { return ErrUnsafePath }

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(o *extractOptions) {
		o.maxBytes = n
	}
}

// ExtractTarGz reads a gzip-compressed tar stream from r and writes its
// directories and regular files below dst. Symlinks, hard links, devices and
// pax headers are skipped. The stream is consumed in a single pass, so r may
// be an HTTP response body.
func ExtractTarGz(r io.Reader, dst string, opts ...Option) (stats Stats, err error) {
	options := extractOptions{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(&options)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }() // read-only stream

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return stats, nil
		}
		if nextErr != nil {
			return stats, fmt.Errorf("reading tar entry: %w", nextErr)
		}

		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeReg:
		default:
			stats.Skipped++
			continue
		}

		target, pathErr := entryPath(dst, hdr.Name)
		if pathErr != nil {
			return stats, pathErr
		}

		if hdr.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return stats, fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
			stats.Dirs++
			continue
		}

		remaining := options.maxBytes - stats.Bytes
		n, writeErr := writeFile(target, tr, hdr.FileInfo().Mode().Perm(), remaining)
		stats.Bytes += n
		if writeErr != nil {
			return stats, fmt.Errorf("extracting %s: %w", hdr.Name, writeErr)
		}
		stats.Files++
	}
}

// entryPath maps a slash-separated tar entry name onto dst.
func entryPath(dst, name string) (string, error) {
	rel := filepath.FromSlash(name)
	if rel == "" || !filepath.IsLocal(rel) {
		return "", &UnsafePathError{Name: name}
	}
	return filepath.Join(dst, rel), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode, remaining int64) (n int64, err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Read one byte past the budget so an oversized entry is detected.
	n, err = io.Copy(f, io.LimitReader(r, remaining+1))
	if err != nil {
		return n, err
	}
	if n > remaining {
		return n, ErrTooLarge
	}
	return n, nil
}

// SingleRoot returns the only top-level directory inside dir, or "" when dir
// holds anything else. GitHub release tarballs wrap the repository in one
// "<owner>-<repo>-<sha>" directory.
func SingleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", nil
	}
	return filepath.Join(dir, entries[0].Name()), nil
}
