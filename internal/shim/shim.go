// SPDX-License-Identifier: MPL-2.0

// Package shim carries the Python files that make the host application load
// ilstrap packages: a plugin and a loader entry point plus the runtime
// package they import. Install rewrites them on every run so upgrades of
// ilstrap reach existing installations.
package shim

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

//go:embed all:assets
var assets embed.FS

const assetsRoot = "assets"

// Files returns the slash-separated paths of every shim, relative to the
// host installation directory.
func Files() []string {
	var files []string
	_ = fs.WalkDir(assets, assetsRoot, func(p string, d fs.DirEntry, err error) error { //nolint:errcheck // embedded tree
		if err == nil && !d.IsDir() {
			files = append(files, strings.TrimPrefix(p, assetsRoot+"/"))
		}
		return err
	})
	return files
}

// RuntimeDir is the slash-separated directory, relative to the host
// installation, that holds the runtime package and the installed packages.
const RuntimeDir = "plugins/ilstrap"

// RuntimeEntries returns the names Install writes directly inside
// RuntimeDir. Installed packages share that directory and must not use them.
func RuntimeEntries() []string {
	var names []string
	for _, rel := range Files() {
		rest, ok := strings.CutPrefix(rel, RuntimeDir+"/")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// Content returns the embedded bytes of the shim at rel, a path as returned
// by Files.
func Content(rel string) ([]byte, error) {
	return assets.ReadFile(path.Join(assetsRoot, rel))
}

// Install writes every shim below hostDir, replacing existing copies, and
// returns the written paths.
func Install(hostDir string) ([]string, error) {
	var written []string
	for _, rel := range Files() {
		data, err := Content(rel)
		if err != nil {
			return written, err
		}
		target := filepath.Join(hostDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, fmt.Errorf("writing shim %s: %w", rel, err)
		}
		written = append(written, target)
	}
	return written, nil
}
