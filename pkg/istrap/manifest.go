// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/ilstrap/ilstrap/pkg/cueutil"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// ManifestFile is the manifest file name inside the ilstrap root.
	ManifestFile = "istrap.json"

	// CurrentManifestVersion is the schema version Save writes.
	CurrentManifestVersion = 3

	// DefaultManifestComment is the comment of a fresh manifest.
	DefaultManifestComment = "This is the configured list of istrap packages"
)

// ErrInvalidManifest wraps manifest files that exist but cannot be parsed.
var ErrInvalidManifest = errors.New("invalid manifest")

//go:embed manifest_schema.cue
var manifestSchema []byte

// Manifest records the installed packages, keyed by package name, with the
// source path each was installed from.
//
// Versions 1 and 2 are upgraded in memory on load and written back as
// CurrentManifestVersion. Newer versions are refused. Fields this release does
// not know about are preserved by Save.
type Manifest struct {
	Comment  string            `json:"comment"`
	Version  int               `json:"version"`
	Packages map[string]string `json:"packages"`

	raw          []byte
	migratedFrom int
}

// NewManifest returns an empty manifest at the current schema version.
func NewManifest() *Manifest {
	return &Manifest{
		Comment:  DefaultManifestComment,
		Version:  CurrentManifestVersion,
		Packages: map[string]string{},
	}
}

// LoadManifest reads the manifest at path. A missing file yields NewManifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// ParseManifest decodes manifest JSON. filename only labels errors.
func ParseManifest(data []byte, filename string) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidManifest, filename)
	}

	version := 1
	if v := gjson.GetBytes(data, "version"); v.Exists() {
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("%w: %s: version must be a number", ErrInvalidManifest, filename)
		}
		version = int(v.Int())
	}
	if version > CurrentManifestVersion {
		return nil, fmt.Errorf("%w: %s has version %d, this ilstrap reads up to %d",
			ErrUnsupportedManifestVersion, filename, version, CurrentManifestVersion)
	}

	m, err := cueutil.Decode[Manifest](manifestSchema, "#Manifest", data, cueutil.WithFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if m.Packages == nil {
		m.Packages = map[string]string{}
	}
	if version < CurrentManifestVersion {
		m.migratedFrom = version
		m.Version = CurrentManifestVersion
		if m.Comment == "" {
			m.Comment = DefaultManifestComment
		}
	}
	m.raw = slices.Clone(data)
	return m, nil
}

// MigratedFrom returns the schema version the manifest was upgraded from on
// load, or 0 when no migration happened.
func (m *Manifest) MigratedFrom() int { return m.migratedFrom }

// Set records name as installed from source.
func (m *Manifest) Set(name, source string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if m.Packages == nil {
		m.Packages = map[string]string{}
	}
	m.Packages[name] = source
	return nil
}

// Get returns the recorded source of name.
func (m *Manifest) Get(name string) (string, bool) {
	source, ok := m.Packages[name]
	return source, ok
}

// Remove drops name and reports whether it was present.
func (m *Manifest) Remove(name string) bool {
	if _, ok := m.Packages[name]; !ok {
		return false
	}
	delete(m.Packages, name)
	return true
}

// Names returns the package names in lexical order.
func (m *Manifest) Names() []string {
	return slices.Sorted(maps.Keys(m.Packages))
}

// Save writes the manifest to path by way of a temporary file in the same
// directory and a rename, so readers never observe a partial file.
func (m *Manifest) Save(path string) (err error) {
	doc, err := m.document()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".istrap-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary manifest: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing manifest: %w", err)
	}

	m.raw = doc
	m.Version = CurrentManifestVersion
	m.migratedFrom = 0
	return nil
}

// document patches the known fields into the document read from disk.
func (m *Manifest) document() ([]byte, error) {
	doc := m.raw
	if len(doc) == 0 {
		doc = []byte("{}")
	}

	packages := m.Packages
	if packages == nil {
		packages = map[string]string{}
	}

	var err error
	for _, field := range []struct {
		key   string
		value any
	}{
		{"comment", m.Comment},
		{"version", CurrentManifestVersion},
		{"packages", packages},
	} {
		if doc, err = sjson.SetBytes(doc, field.key, field.value); err != nil {
			return nil, fmt.Errorf("encoding manifest %s: %w", field.key, err)
		}
	}
	return doc, nil
}
