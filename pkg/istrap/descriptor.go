// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ilstrap/ilstrap/internal/shim"
	"github.com/ilstrap/ilstrap/pkg/cueutil"
	"github.com/ilstrap/ilstrap/pkg/platform"

	"golang.org/x/mod/semver"
)

// DescriptorFile is the descriptor file name at the root of a package.
const DescriptorFile = "istrap.json"

//go:embed descriptor_schema.cue
var descriptorSchema []byte

type (
	// Descriptor is a parsed istrap.json bound to the directory it was read
	// from. Descriptors built from archives own a temporary working directory
	// that Close removes.
	Descriptor struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		LoadPaths []string `json:"load_paths"`
		Loaders   []string `json:"loaders"`
		Plugins   []string `json:"plugins"`

		path      string
		workdir   string
		temporary bool
	}
)

// IsProjectPath reports whether dir holds a descriptor file.
func IsProjectPath(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, DescriptorFile))
	return err == nil && info.Mode().IsRegular()
}

// FromPath reads the descriptor at the root of dir.
func FromPath(dir string) (*Descriptor, error) {
	return FromFile(filepath.Join(dir, DescriptorFile))
}

// FromFile reads a descriptor file. The descriptor is bound to the file's
// directory.
func FromFile(file string) (*Descriptor, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", file, err)
	}

	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDescriptorNotFound, abs)
	}
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}

	d, err := ParseDescriptor(data, abs)
	if err != nil {
		return nil, err
	}
	d.path = filepath.Dir(abs)
	return d, nil
}

// ParseDescriptor decodes descriptor JSON. filename only labels errors. The
// returned descriptor is not bound to any directory.
func ParseDescriptor(data []byte, filename string) (*Descriptor, error) {
	d, err := cueutil.Decode[Descriptor](descriptorSchema, "#Descriptor", data, cueutil.WithFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	if err := ValidatePackageName(d.Name); err != nil {
		return nil, err
	}

	d.LoadPaths = nonNil(d.LoadPaths)
	d.Loaders = nonNil(d.Loaders)
	d.Plugins = nonNil(d.Plugins)
	return d, nil
}

// ValidatePackageName checks that name is usable as a single directory
// entry below the host plugin tree on every supported platform.
func ValidatePackageName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &InvalidPackageNameError{Name: name, Reason: "must not be empty"}
	case name == "." || name == "..":
		return &InvalidPackageNameError{Name: name, Reason: "must not be a relative directory reference"}
	case strings.ContainsAny(name, `/\:`):
		return &InvalidPackageNameError{Name: name, Reason: "must not contain path separators"}
	case platform.IsReservedName(name):
		return &InvalidPackageNameError{Name: name, Reason: "is a reserved device name on Windows"}
	case isRuntimeEntry(name):
		return &InvalidPackageNameError{Name: name, Reason: "collides with a file ilstrap keeps in the plugin directory"}
	}
	return nil
}

// isRuntimeEntry reports whether name would replace the manifest or a
// runtime shim. Case is ignored since the host may live on a case-insensitive
// file system.
func isRuntimeEntry(name string) bool {
	reserved := append([]string{ManifestFile, "__pycache__"}, shim.RuntimeEntries()...)
	return slices.ContainsFunc(reserved, func(r string) bool { return strings.EqualFold(r, name) })
}

// SourcePath returns the absolute directory the descriptor was read from.
func (d *Descriptor) SourcePath() string { return d.path }

// IsTemporary reports whether the sources live in a temporary directory.
func (d *Descriptor) IsTemporary() bool { return d.temporary }

// SemVer returns Version in canonical "vMAJOR.MINOR.PATCH" form, or "" when
// it is not a semantic version.
func (d *Descriptor) SemVer() string {
	return CanonicalVersion(d.Version)
}

// CanonicalVersion is SemVer for a bare version string.
func CanonicalVersion(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// ModulePaths resolves every load path to an absolute path rooted at the
// source directory. Symlinks are resolved when the path exists.
func (d *Descriptor) ModulePaths() []string {
	return d.resolve(d.LoadPaths)
}

// LoaderPaths resolves the host loader entry points.
func (d *Descriptor) LoaderPaths() []string {
	return d.resolve(d.Loaders)
}

// PluginPaths resolves the host plugin entry points.
func (d *Descriptor) PluginPaths() []string {
	return d.resolve(d.Plugins)
}

func (d *Descriptor) resolve(rel []string) []string {
	base := realPath(d.path)
	out := make([]string, 0, len(rel))
	for _, p := range rel {
		out = append(out, realPath(filepath.Join(base, filepath.FromSlash(p))))
	}
	return out
}

// Close removes the temporary working directory, if the descriptor owns
// one. It is safe to call more than once.
func (d *Descriptor) Close() error {
	if d.workdir == "" {
		return nil
	}
	dir := d.workdir
	d.workdir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing working directory %s: %w", dir, err)
	}
	return nil
}

func realPath(p string) string {
	if real, err := filepath.EvalSymlinks(p); err == nil {
		return real
	}
	return filepath.Clean(p)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
