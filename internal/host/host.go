// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ilstrap/ilstrap/pkg/platform"
)

const (
	// PluginsDir is the host's plugin directory.
	PluginsDir = "plugins"
	// LoadersDir is the host's file loader directory.
	LoadersDir = "loaders"
	// RootName names the ilstrap directory under PluginsDir.
	RootName = "ilstrap"
)

var (
	// ErrHostNotFound is returned when no valid host installation is found.
	ErrHostNotFound = errors.New("host installation not found")
	// ErrHostNotSupported is returned on operating systems ilstrap does not handle.
	ErrHostNotSupported = errors.New("operating system not supported")
	// ErrNotAdmin is returned on Windows when the process is not elevated.
	ErrNotAdmin = errors.New("administrator privileges required")
)

// MarkerNames returns the executables that identify a host installation on
// goos, most specific first.
func MarkerNames(goos string) []string {
	if goos == platform.Windows {
		return []string{"ida64.exe", "ida.exe"}
	}
	return []string{"ida64", "ida"}
}

// IsValidHost reports whether dir contains a marker executable for the
// running platform.
func IsValidHost(dir string) bool {
	return isValidHostFor(runtime.GOOS, dir)
}

func isValidHostFor(goos, dir string) bool {
	if dir == "" {
		return false
	}
	for _, name := range MarkerNames(goos) {
		info, err := os.Stat(filepath.Join(dir, name))
		if err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// Layout names the directories ilstrap writes inside a host installation.
type Layout struct {
	Dir string
}

// Plugins returns <host>/plugins.
func (l Layout) Plugins() string { return filepath.Join(l.Dir, PluginsDir) }

// Loaders returns <host>/loaders.
func (l Layout) Loaders() string { return filepath.Join(l.Dir, LoadersDir) }

// Root returns <host>/plugins/ilstrap, where packages are installed.
func (l Layout) Root() string { return filepath.Join(l.Dir, PluginsDir, RootName) }
