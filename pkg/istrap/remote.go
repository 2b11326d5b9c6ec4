// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ilstrap/ilstrap/pkg/archive"
)

// WorkdirPrefix prefixes the temporary directories archives are extracted to.
const WorkdirPrefix = "ilstrap_workdir"

// TarballSource streams the gzip-compressed source tarball of the latest
// release of a repository identified as "owner/name".
type TarballSource interface {
	LatestTarball(ctx context.Context, repo string) (io.ReadCloser, error)
}

// FromRemote downloads the latest release tarball of repo, extracts it into
// a fresh temporary directory and returns the descriptor found there. The
// caller must Close the descriptor to remove the directory.
func FromRemote(ctx context.Context, src TarballSource, repo string) (*Descriptor, error) {
	stream, err := src.LatestTarball(ctx, repo)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }() // read-only stream

	body := &downloadReader{r: stream}
	d, err := FromTarball(body, repo)
	if err != nil && (body.err != nil || truncated(err)) {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteDownload, err)
	}
	return d, err
}

// FromArchive extracts a local .tar.gz package.
func FromArchive(file string) (*Descriptor, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only

	return FromTarball(f, file)
}

// FromTarball extracts a gzip-compressed tarball read from r into a
// temporary directory owned by the returned descriptor. label names the
// archive in errors. The descriptor is looked up at the archive root and,
// failing that, inside its single top-level directory.
func FromTarball(r io.Reader, label string) (_ *Descriptor, err error) {
	workdir, err := os.MkdirTemp("", WorkdirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(workdir)
		}
	}()

	if _, err := archive.ExtractTarGz(r, workdir); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", label, err)
	}

	root := workdir
	if !IsProjectPath(root) {
		nested, rootErr := archive.SingleRoot(workdir)
		if rootErr != nil {
			return nil, fmt.Errorf("inspecting %s: %w", label, rootErr)
		}
		if nested == "" || !IsProjectPath(nested) {
			return nil, fmt.Errorf("%w: %s contains no %s", ErrNotValidPackage, label, DescriptorFile)
		}
		root = nested
	}

	d, err := FromPath(root)
	if errors.Is(err, ErrDescriptorNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotValidPackage, label)
	}
	if err != nil {
		return nil, err
	}

	d.workdir = workdir
	d.temporary = true
	return d, nil
}

// downloadReader remembers the first transport error of a stream.
type downloadReader struct {
	r   io.Reader
	err error
}

func (d *downloadReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && d.err == nil {
		d.err = err
	}
	return n, err
}

// truncated reports whether an extraction failed because the stream ended
// early or was corrupted in transit, as opposed to holding unsafe content.
func truncated(err error) bool {
	if errors.Is(err, archive.ErrUnsafePath) || errors.Is(err, archive.ErrTooLarge) {
		return false
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, gzip.ErrChecksum)
}
