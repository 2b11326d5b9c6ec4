// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilstrap/ilstrap/internal/host"
	"github.com/ilstrap/ilstrap/internal/shim"
	"github.com/ilstrap/ilstrap/pkg/istrap"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
)

var (
	// ErrNotOpen is returned by operations on an Environment before Open.
	ErrNotOpen = errors.New("environment not open")
	// ErrNotInstalled is returned by Uninstall for unknown package names.
	ErrNotInstalled = errors.New("package not installed")
)

type (
	// Environment manages the packages of one host installation.
	Environment struct {
		layout   host.Layout
		logger   *log.Logger
		manifest *istrap.Manifest
		owned    []*istrap.Descriptor
	}

	// InstallOptions selects how a package is placed.
	InstallOptions struct {
		// DevMode links the package instead of copying it.
		DevMode bool
		// Overwrite replaces whatever occupies the target first.
		Overwrite bool
	}

	// Result describes a completed install.
	Result struct {
		Name   string
		Target string
		// Source is the path recorded in the manifest.
		Source  string
		Linked  bool
		Version string
		// Previous is the version that was installed before, if any.
		Previous string
	}
)

// New returns a closed Environment for hostDir, which must already be a
// valid host installation.
func New(hostDir string, logger *log.Logger) *Environment {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Environment{layout: host.Layout{Dir: hostDir}, logger: logger}
}

// Open writes the shims, creates plugins/ilstrap and loads the manifest.
// Opening an open environment reloads the manifest.
func (e *Environment) Open() error {
	written, err := shim.Install(e.layout.Dir)
	if err != nil {
		return fmt.Errorf("installing shims: %w", err)
	}
	e.logger.Debug("shims written", "count", len(written))

	if err := os.MkdirAll(e.layout.Root(), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", e.layout.Root(), err)
	}

	m, err := istrap.LoadManifest(e.ManifestPath())
	if err != nil {
		return err
	}
	if from := m.MigratedFrom(); from != 0 {
		e.logger.Info("upgrading manifest", "from", from, "to", istrap.CurrentManifestVersion)
	}
	e.manifest = m
	return nil
}

// Load reads the manifest without writing anything to the host. Read-only
// commands use it in place of Open; a migrated manifest stays unsaved.
func (e *Environment) Load() error {
	m, err := istrap.LoadManifest(e.ManifestPath())
	if err != nil {
		return err
	}
	e.manifest = m
	return nil
}

// Layout returns the host directories the environment writes to.
func (e *Environment) Layout() host.Layout { return e.layout }

// ManifestPath returns plugins/ilstrap/istrap.json of the host.
func (e *Environment) ManifestPath() string {
	return filepath.Join(e.layout.Root(), istrap.ManifestFile)
}

// Manifest returns the loaded manifest, or nil before Open.
func (e *Environment) Manifest() *istrap.Manifest { return e.manifest }

// Install places d under plugins/ilstrap and records it in the manifest.
// The environment takes ownership of d and closes it in Close.
//
// Remote and archive packages are recorded with their installed path,
// since their extraction directory does not outlive the environment.
func (e *Environment) Install(d *istrap.Descriptor, opts InstallOptions) (Result, error) {
	if e.manifest == nil {
		return Result{}, ErrNotOpen
	}
	e.owned = append(e.owned, d)

	root := e.layout.Root()
	previous := installedVersion(d.TargetPath(root))

	var (
		target string
		err    error
	)
	if opts.DevMode {
		target, err = d.LinkTo(root, opts.Overwrite)
	} else {
		target, err = d.CopyTo(root, opts.Overwrite)
	}
	if err != nil {
		return Result{}, err
	}

	source := d.SourcePath()
	if d.IsTemporary() {
		source = target
	}
	if err := e.manifest.Set(d.Name, source); err != nil {
		return Result{}, err
	}
	if err := e.manifest.Save(e.ManifestPath()); err != nil {
		return Result{}, fmt.Errorf("saving manifest: %w", err)
	}

	res := Result{
		Name:     d.Name,
		Target:   target,
		Source:   source,
		Linked:   opts.DevMode,
		Version:  d.Version,
		Previous: previous,
	}
	e.logVersionChange(res)
	return res, nil
}

func (e *Environment) logVersionChange(res Result) {
	cur, prev := istrap.CanonicalVersion(res.Version), istrap.CanonicalVersion(res.Previous)
	switch {
	case res.Previous == "":
		e.logger.Info("installed", "package", res.Name, "version", res.Version, "linked", res.Linked)
	case cur != "" && prev != "" && semver.Compare(cur, prev) > 0:
		e.logger.Info("upgraded", "package", res.Name, "from", res.Previous, "to", res.Version)
	case cur != "" && prev != "" && semver.Compare(cur, prev) < 0:
		e.logger.Warn("downgraded", "package", res.Name, "from", res.Previous, "to", res.Version)
	default:
		e.logger.Info("reinstalled", "package", res.Name, "version", res.Version)
	}
}

// installedVersion reads the version of the package currently at target,
// or "" when there is none.
func installedVersion(target string) string {
	if !istrap.IsProjectPath(target) {
		return ""
	}
	d, err := istrap.FromPath(target)
	if err != nil {
		return ""
	}
	return d.Version
}

// Uninstall removes the installed tree or link of name and its manifest
// entry. The package's source directory is never touched.
func (e *Environment) Uninstall(name string) error {
	if e.manifest == nil {
		return ErrNotOpen
	}
	if _, ok := e.manifest.Get(name); !ok {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	if err := istrap.RemoveTarget(filepath.Join(e.layout.Root(), name)); err != nil {
		return err
	}
	e.manifest.Remove(name)
	if err := e.manifest.Save(e.ManifestPath()); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	e.logger.Info("uninstalled", "package", name)
	return nil
}

// Close releases every descriptor handed to Install.
func (e *Environment) Close() error {
	var errs []error
	for _, d := range e.owned {
		errs = append(errs, d.Close())
	}
	e.owned = nil
	return errors.Join(errs...)
}
