// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// RemotePrefix marks a package reference as a GitHub repository, as in
// "gh:owner/repo".
const RemotePrefix = "gh:"

type (
	// Loader turns a package reference into a Descriptor. Accept must be
	// cheap and side-effect free; Load does the actual work.
	Loader interface {
		Accept(ref string) bool
		Load(ctx context.Context, ref string) (*Descriptor, error)
	}

	// Registry resolves references against an ordered list of loaders. The
	// first loader that accepts a reference loads it.
	Registry struct {
		loaders []Loader
	}

	// LocalLoader loads a package from a project directory.
	LocalLoader struct{}

	// ArchiveLoader loads a package from a local .tar.gz or .tgz file.
	ArchiveLoader struct{}

	// RemoteLoader loads the latest GitHub release of a "gh:owner/repo"
	// reference.
	RemoteLoader struct {
		Source TarballSource
	}
)

// NewRegistry returns a registry consulting loaders in order.
func NewRegistry(loaders ...Loader) *Registry {
	return &Registry{loaders: loaders}
}

// DefaultRegistry registers the remote, archive and local loaders, in that
// order.
func DefaultRegistry(src TarballSource) *Registry {
	return NewRegistry(RemoteLoader{Source: src}, ArchiveLoader{}, LocalLoader{})
}

// Resolve loads ref with the first accepting loader.
func (r *Registry) Resolve(ctx context.Context, ref string) (*Descriptor, error) {
	for _, l := range r.loaders {
		if l.Accept(ref) {
			return l.Load(ctx, ref)
		}
	}
	return nil, fmt.Errorf("%w %q: %w", ErrNoLoader, ref, ErrDescriptorNotFound)
}

// RemoteRef builds the reference RemoteLoader accepts.
func RemoteRef(repo string) string {
	return RemotePrefix + repo
}

// Accept reports whether ref is an existing directory.
func (LocalLoader) Accept(ref string) bool {
	info, err := os.Stat(ref)
	return err == nil && info.IsDir()
}

// Load reads the descriptor at the root of ref.
func (LocalLoader) Load(_ context.Context, ref string) (*Descriptor, error) {
	return FromPath(ref)
}

// Accept reports whether ref is a regular file named like a gzip tarball.
func (ArchiveLoader) Accept(ref string) bool {
	lower := strings.ToLower(ref)
	if !strings.HasSuffix(lower, ".tar.gz") && !strings.HasSuffix(lower, ".tgz") {
		return false
	}
	info, err := os.Stat(ref)
	return err == nil && info.Mode().IsRegular()
}

// Load extracts ref into a temporary directory.
func (ArchiveLoader) Load(_ context.Context, ref string) (*Descriptor, error) {
	return FromArchive(ref)
}

// Accept reports whether ref carries RemotePrefix.
func (l RemoteLoader) Accept(ref string) bool {
	return l.Source != nil && strings.HasPrefix(ref, RemotePrefix)
}

// Load downloads and extracts the latest release.
func (l RemoteLoader) Load(ctx context.Context, ref string) (*Descriptor, error) {
	return FromRemote(ctx, l.Source, strings.TrimPrefix(ref, RemotePrefix))
}
