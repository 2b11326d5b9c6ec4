// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ilstrap/ilstrap/internal/testutil"
)

// realTempDir returns t.TempDir with symlinks resolved, which matters on
// macOS where /var links to /private/var.
func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeProject(t *testing.T, dir, descriptor string) {
	t.Helper()
	testutil.MustWriteFile(t, filepath.Join(dir, DescriptorFile), descriptor)
}

func TestIsProjectPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if IsProjectPath(dir) {
		t.Error("empty directory should not be a project path")
	}

	testutil.MustMkdirAll(t, filepath.Join(dir, DescriptorFile))
	if IsProjectPath(dir) {
		t.Error("a directory named istrap.json should not count as a descriptor")
	}

	other := t.TempDir()
	writeProject(t, other, `{"name": "demo"}`)
	if !IsProjectPath(other) {
		t.Error("directory with istrap.json should be a project path")
	}
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	dir := realTempDir(t)
	writeProject(t, dir, `{
		"name": "demo",
		"version": "1.2.0",
		"load_paths": ["mods"],
		"loaders": ["loaders/demo.py"],
		"homepage": "https://example.com"
	}`)

	d, err := FromPath(dir)
	if err != nil {
		t.Fatalf("FromPath() error = %v", err)
	}
	if d.Name != "demo" || d.Version != "1.2.0" {
		t.Errorf("descriptor = %+v", d)
	}
	if d.SourcePath() != dir {
		t.Errorf("SourcePath() = %q, want %q", d.SourcePath(), dir)
	}
	if d.IsTemporary() {
		t.Error("local descriptor should not be temporary")
	}
	if d.Plugins == nil || len(d.Plugins) != 0 {
		t.Errorf("Plugins = %#v, want empty slice", d.Plugins)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() on local descriptor: %v", err)
	}
}

func TestFromPath_NotFound(t *testing.T) {
	t.Parallel()

	_, err := FromPath(t.TempDir())
	if !errors.Is(err, ErrDescriptorNotFound) {
		t.Fatalf("FromPath() error = %v, want ErrDescriptorNotFound", err)
	}
}

func TestParseDescriptor_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"missing name", `{"version": "1"}`, ErrInvalidDescriptor},
		{"list of wrong type", `{"name": "demo", "load_paths": [1]}`, ErrInvalidDescriptor},
		{"not json", `{"name": "demo"`, ErrInvalidDescriptor},
		{"separator in name", `{"name": "../evil"}`, ErrInvalidPackageName},
		{"dot name", `{"name": ".."}`, ErrInvalidPackageName},
		{"reserved name", `{"name": "con"}`, ErrInvalidPackageName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDescriptor([]byte(tt.data), DescriptorFile)
			if err == nil {
				t.Fatal("ParseDescriptor() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestModulePaths(t *testing.T) {
	t.Parallel()

	dir := realTempDir(t)
	writeProject(t, dir, `{"name": "demo", "load_paths": ["a", "b"]}`)
	testutil.MustMkdirAll(t, filepath.Join(dir, "a"))

	d, err := FromPath(dir)
	if err != nil {
		t.Fatal(err)
	}

	got := d.ModulePaths()
	want := []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}
	if len(got) != len(want) {
		t.Fatalf("ModulePaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ModulePaths()[%d] = %q, want %q", i, got[i], want[i])
		}
		if !filepath.IsAbs(got[i]) {
			t.Errorf("ModulePaths()[%d] = %q is not absolute", i, got[i])
		}
	}
}

func TestEntryPointPaths(t *testing.T) {
	t.Parallel()

	dir := realTempDir(t)
	writeProject(t, dir, `{"name": "demo", "loaders": ["ldr/x.py"], "plugins": ["plg/y.py"]}`)

	d, err := FromPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.LoaderPaths(); len(got) != 1 || got[0] != filepath.Join(dir, "ldr", "x.py") {
		t.Errorf("LoaderPaths() = %v", got)
	}
	if got := d.PluginPaths(); len(got) != 1 || got[0] != filepath.Join(dir, "plg", "y.py") {
		t.Errorf("PluginPaths() = %v", got)
	}
}

func TestSemVer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "v1.2.3"},
		{"v1.2", "v1.2.0"},
		{" 2 ", "v2.0.0"},
		{"", ""},
		{"nightly", ""},
	}
	for _, tt := range tests {
		d := &Descriptor{Name: "demo", Version: tt.version}
		if got := d.SemVer(); got != tt.want {
			t.Errorf("SemVer(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestValidatePackageName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"demo", "my-pkg", "pkg.v2", "Foo_Bar"} {
		if err := ValidatePackageName(name); err != nil {
			t.Errorf("ValidatePackageName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", " ", ".", "..", "a/b", `a\b`, "c:x", "NUL", "lpt1.py",
		"istrap.json", "ISTRAP.JSON", "environment.py", "shared.py", "__init__.py", "__pycache__"} {
		err := ValidatePackageName(name)
		var nameErr *InvalidPackageNameError
		if !errors.As(err, &nameErr) {
			t.Errorf("ValidatePackageName(%q) = %v, want InvalidPackageNameError", name, err)
			continue
		}
		if !strings.Contains(err.Error(), "invalid package name") {
			t.Errorf("error message %q", err)
		}
	}
}
