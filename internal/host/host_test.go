// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ilstrap/ilstrap/internal/testutil"
	"github.com/ilstrap/ilstrap/pkg/platform"

	"github.com/charmbracelet/log"
)

func makeHost(t *testing.T, dir, marker string) string {
	t.Helper()
	testutil.MustWriteFile(t, filepath.Join(dir, marker), "")
	return dir
}

func quietLocator(goos string, opts ...Option) *Locator {
	return NewLocator(append([]Option{WithGOOS(goos), WithLogger(log.New(io.Discard))}, opts...)...)
}

func TestIsValidHostFor(t *testing.T) {
	t.Parallel()

	unix := makeHost(t, t.TempDir(), "ida64")
	win := makeHost(t, t.TempDir(), "ida.exe")
	dirMarker := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dirMarker, "ida64"))

	tests := []struct {
		name string
		goos string
		dir  string
		want bool
	}{
		{"linux marker", platform.Linux, unix, true},
		{"darwin marker", platform.Darwin, unix, true},
		{"windows ignores unix marker", platform.Windows, unix, false},
		{"windows marker", platform.Windows, win, true},
		{"marker must be a file", platform.Linux, dirMarker, false},
		{"empty dir", platform.Linux, t.TempDir(), false},
		{"empty path", platform.Linux, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidHostFor(tt.goos, tt.dir); got != tt.want {
				t.Errorf("isValidHostFor(%s, %s) = %v, want %v", tt.goos, tt.dir, got, tt.want)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()

	l := Layout{Dir: filepath.FromSlash("/opt/ida")}
	if got, want := l.Root(), filepath.FromSlash("/opt/ida/plugins/ilstrap"); got != want {
		t.Errorf("Root() = %q, want %q", got, want)
	}
	if got, want := l.Loaders(), filepath.FromSlash("/opt/ida/loaders"); got != want {
		t.Errorf("Loaders() = %q, want %q", got, want)
	}
}

func TestLocate_Precedence(t *testing.T) {
	t.Parallel()

	flagDir := makeHost(t, t.TempDir(), "ida64")
	cfgDir := makeHost(t, t.TempDir(), "ida64")
	scanRoot := t.TempDir()
	makeHost(t, filepath.Join(scanRoot, "idapro-9.0"), "ida64")

	l := quietLocator(platform.Linux, WithSearchRoots(scanRoot))
	ctx := context.Background()

	tests := []struct {
		name       string
		explicit   string
		configured string
		wantDir    string
		wantSource Source
	}{
		{"flag wins", flagDir, cfgDir, flagDir, SourceFlag},
		{"config next", "", cfgDir, cfgDir, SourceConfig},
		{"scan last", "", "", filepath.Join(scanRoot, "idapro-9.0"), SourceScan},
	}
	for _, tt := range tests {
		loc, err := l.Locate(ctx, tt.explicit, tt.configured)
		if err != nil {
			t.Fatalf("%s: Locate() error = %v", tt.name, err)
		}
		if loc.Dir != tt.wantDir || loc.Source != tt.wantSource {
			t.Errorf("%s: Locate() = %+v, want %s from %s", tt.name, loc, tt.wantDir, tt.wantSource)
		}
	}
}

func TestLocate_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	empty := quietLocator(platform.Linux, WithSearchRoots(t.TempDir()))

	if _, err := empty.Locate(ctx, t.TempDir(), ""); !errors.Is(err, ErrHostNotFound) {
		t.Errorf("invalid --ida: error = %v, want ErrHostNotFound", err)
	}
	if _, err := empty.Locate(ctx, "", t.TempDir()); !errors.Is(err, ErrHostNotFound) {
		t.Errorf("invalid host_dir: error = %v, want ErrHostNotFound", err)
	}
	if _, err := empty.Locate(ctx, "", ""); !errors.Is(err, ErrHostNotFound) {
		t.Errorf("nothing found: error = %v, want ErrHostNotFound", err)
	}
	if _, err := quietLocator("plan9").Locate(ctx, "", ""); !errors.Is(err, ErrHostNotSupported) {
		t.Errorf("plan9: error = %v, want ErrHostNotSupported", err)
	}
}

func TestLocate_WindowsRegistry(t *testing.T) {
	t.Parallel()

	registered := makeHost(t, t.TempDir(), "ida64.exe")
	scanRoot := t.TempDir()
	makeHost(t, filepath.Join(scanRoot, "IDA Pro 8.3"), "ida.exe")

	l := quietLocator(platform.Windows, WithSearchRoots(scanRoot))
	l.runHelper = func(context.Context) (string, error) { return registered, nil }

	loc, err := l.Locate(context.Background(), "", "")
	if err != nil || loc.Dir != registered || loc.Source != SourceRegistry {
		t.Fatalf("Locate() = %+v, %v; want registry result", loc, err)
	}

	l.runHelper = func(context.Context) (string, error) { return "", errors.New("no association") }
	loc, err = l.Locate(context.Background(), "", "")
	if err != nil || loc.Source != SourceScan {
		t.Fatalf("Locate() = %+v, %v; want scan fallback", loc, err)
	}
}

func TestGuessInstallDir_PicksHighestVersion(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"idapro-8.3", "IDA Pro 9.1", "ida-free-pc-8.4", "ida"} {
		makeHost(t, filepath.Join(root, name), "ida64")
	}
	// Named like a host but missing the executable.
	testutil.MustMkdirAll(t, filepath.Join(root, "idapro-10.0"))
	// Valid executable but unrelated name.
	makeHost(t, filepath.Join(root, "ghidra_11.0"), "ida64")

	got := quietLocator(platform.Linux, WithSearchRoots(root, filepath.Join(root, "missing"))).GuessInstallDir()
	if want := filepath.Join(root, "IDA Pro 9.1"); got != want {
		t.Errorf("GuessInstallDir() = %q, want %q", got, want)
	}
}

func TestGuessInstallDir_DarwinBundle(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	macos := filepath.Join(root, "IDA Professional 9.0.app", "Contents", "MacOS")
	makeHost(t, macos, "ida64")

	if got := quietLocator(platform.Darwin, WithSearchRoots(root)).GuessInstallDir(); got != macos {
		t.Errorf("GuessInstallDir() = %q, want %q", got, macos)
	}
}

func TestGuessInstallDir_NoCandidates(t *testing.T) {
	t.Parallel()

	if got := quietLocator(platform.Linux, WithSearchRoots(t.TempDir())).GuessInstallDir(); got != "" {
		t.Errorf("GuessInstallDir() = %q, want empty", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	l := quietLocator(platform.Windows)
	l.isElevated = func() bool { return false }
	if err := l.RequireAdmin(); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("RequireAdmin() = %v, want ErrNotAdmin", err)
	}
	l.isElevated = func() bool { return true }
	if err := l.RequireAdmin(); err != nil {
		t.Errorf("RequireAdmin() elevated = %v", err)
	}

	linux := quietLocator(platform.Linux)
	linux.isElevated = func() bool { return false }
	if err := linux.RequireAdmin(); err != nil {
		t.Errorf("RequireAdmin() on linux = %v, want nil", err)
	}
}

func TestParseHelperOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		out     string
		want    string
		wantErr bool
	}{
		{"crlf", "IDA install: C:\\Program Files\\IDA Pro 9.0\\\r\n", `C:\Program Files\IDA Pro 9.0`, false},
		{"no trailing separator", "IDA install: D:\\ida\n", `D:\ida`, false},
		{"drive root kept", "IDA install: C:\\\r\n", `C:\`, false},
		{"noise before", "warning\r\nIDA install: E:\\tools\\ida\r\n", `E:\tools\ida`, false},
		{"unexpected", "File association not found\r\n", "", true},
		{"empty dir", "IDA install: \r\n", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseHelperOutput(tt.out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHelperOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseHelperOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHelperScriptEmbedded(t *testing.T) {
	t.Parallel()

	if len(getPathScript) == 0 {
		t.Fatal("get_path.bat not embedded")
	}
	if _, err := os.Stat(filepath.Join("scripts", "get_path.bat")); err != nil {
		t.Fatal(err)
	}
}
