// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilstrap/ilstrap/pkg/istrap"
)

// Status is the health of one manifest entry.
type Status struct {
	Name   string
	Source string
	Target string

	SourceExists bool
	Installed    bool
	Linked       bool

	Version string
	// ModulePaths are the directories the host adds to its import path.
	ModulePaths []string
	// Err is the reason the entry is broken, if it is.
	Err error
}

// Broken reports whether the host will fail to load the entry.
func (s Status) Broken() bool { return s.Err != nil }

// Check inspects every manifest entry in name order.
func (e *Environment) Check() ([]Status, error) {
	if e.manifest == nil {
		return nil, ErrNotOpen
	}
	names := e.manifest.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		out = append(out, e.check(name))
	}
	return out, nil
}

func (e *Environment) check(name string) Status {
	source, _ := e.manifest.Get(name)
	st := Status{
		Name:   name,
		Source: source,
		Target: filepath.Join(e.layout.Root(), name),
	}

	if _, err := os.Stat(source); err == nil {
		st.SourceExists = true
	}

	info, err := os.Lstat(st.Target)
	if err != nil {
		st.Err = fmt.Errorf("not installed at %s", st.Target)
		return st
	}
	st.Installed = true
	st.Linked = info.Mode()&os.ModeSymlink != 0

	d, err := istrap.FromPath(st.Target)
	if err != nil {
		st.Err = err
		return st
	}
	if d.Name != name {
		st.Err = fmt.Errorf("descriptor names %q, manifest entry is %q", d.Name, name)
		return st
	}
	st.Version = d.Version
	st.ModulePaths = d.ModulePaths()
	for _, p := range st.ModulePaths {
		if _, err := os.Stat(p); err != nil {
			st.Err = fmt.Errorf("load path %s is missing", p)
			return st
		}
	}
	// The host shims import these files by path.
	st.Err = missingEntryPoint("loader", d.LoaderPaths())
	if st.Err == nil {
		st.Err = missingEntryPoint("plugin", d.PluginPaths())
	}
	return st
}

func missingEntryPoint(kind string, paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("%s %s is missing", kind, p)
		}
	}
	return nil
}
