// SPDX-License-Identifier: MPL-2.0

package istrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ilstrap/ilstrap/internal/testutil"
)

func TestFromRemote(t *testing.T) {
	t.Parallel()

	src := &fakeSource{tarballs: map[string][]byte{"owner/demo": githubStyleTarball(t)}}
	d, err := FromRemote(context.Background(), src, "owner/demo")
	if err != nil {
		t.Fatalf("FromRemote() error = %v", err)
	}
	workdir := d.workdir

	if filepath.Base(d.SourcePath()) != "owner-demo-1a2b3c" {
		t.Errorf("SourcePath() = %q, want the nested release directory", d.SourcePath())
	}
	if d.SemVer() != "v0.3.0" {
		t.Errorf("SemVer() = %q", d.SemVer())
	}

	install := t.TempDir()
	target, err := d.CopyTo(install, true)
	if err != nil {
		t.Fatalf("CopyTo() error = %v", err)
	}
	if got := testutil.MustReadFile(t, filepath.Join(target, "mods", "demo.py")); got != "X = 1\n" {
		t.Errorf("demo.py = %q", got)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(workdir); !os.IsNotExist(err) {
		t.Errorf("workdir survived Close: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("installed copy must survive Close: %v", err)
	}
}

func TestFromTarball_DescriptorAtRoot(t *testing.T) {
	t.Parallel()

	data := testutil.TarGz(t, testutil.TarEntry{Name: "istrap.json", Content: `{"name": "flat"}`})
	d, err := FromTarball(bytes.NewReader(data), "flat.tar.gz")
	if err != nil {
		t.Fatalf("FromTarball() error = %v", err)
	}
	defer func() { _ = d.Close() }()
	if d.Name != "flat" {
		t.Errorf("Name = %q", d.Name)
	}
}

func TestFromTarball_NotAPackage(t *testing.T) {
	t.Parallel()

	tests := map[string][]testutil.TarEntry{
		"no descriptor": {
			{Name: "owner-repo-sha/"},
			{Name: "owner-repo-sha/README.md", Content: "hi"},
		},
		"two top-level dirs": {
			{Name: "a/istrap.json", Content: `{"name": "a"}`},
			{Name: "b/istrap.json", Content: `{"name": "b"}`},
		},
	}

	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := FromTarball(bytes.NewReader(testutil.TarGz(t, entries...)), name)
			if !errors.Is(err, ErrNotValidPackage) {
				t.Fatalf("FromTarball() error = %v, want ErrNotValidPackage", err)
			}
		})
	}
}

func TestFromRemote_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := FromRemote(context.Background(), &fakeSource{err: boom}, "owner/demo")
	if !errors.Is(err, boom) {
		t.Fatalf("FromRemote() error = %v, want %v", err, boom)
	}
}

// bulkyTarball holds enough data that cutting the compressed stream in half
// lands inside file content.
func bulkyTarball(t *testing.T) []byte {
	t.Helper()
	var big strings.Builder
	for i := range 4000 {
		fmt.Fprintf(&big, "ROW_%d = %d\n", i, i*i)
	}
	return testutil.TarGz(t,
		testutil.TarEntry{Name: "owner-demo-1/"},
		testutil.TarEntry{Name: "owner-demo-1/istrap.json", Content: `{"name": "demo"}`},
		testutil.TarEntry{Name: "owner-demo-1/big.py", Content: big.String()},
	)
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func (f *failingReader) Close() error { return nil }

type streamSource struct{ stream io.ReadCloser }

func (s streamSource) LatestTarball(context.Context, string) (io.ReadCloser, error) {
	return s.stream, nil
}

func TestFromRemote_IncompleteDownload(t *testing.T) {
	t.Parallel()

	data := bulkyTarball(t)
	half := data[:len(data)/2]
	reset := errors.New("connection reset by peer")

	tests := map[string]io.ReadCloser{
		"truncated body":  io.NopCloser(bytes.NewReader(half)),
		"transport error": &failingReader{data: half, err: reset},
	}
	for name, stream := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := FromRemote(context.Background(), streamSource{stream: stream}, "owner/demo")
			if !errors.Is(err, ErrIncompleteDownload) {
				t.Fatalf("FromRemote() error = %v, want ErrIncompleteDownload", err)
			}
		})
	}
}

func TestFromRemote_MalformedIsNotIncomplete(t *testing.T) {
	t.Parallel()

	data := testutil.TarGz(t, testutil.TarEntry{Name: "../escape.py", Content: "x"})
	_, err := FromRemote(context.Background(), streamSource{stream: io.NopCloser(bytes.NewReader(data))}, "owner/demo")
	if err == nil || errors.Is(err, ErrIncompleteDownload) {
		t.Fatalf("FromRemote() error = %v, want an unsafe archive error", err)
	}
}

func TestFromArchive_TruncatedIsNotADownloadError(t *testing.T) {
	t.Parallel()

	data := bulkyTarball(t)
	file := filepath.Join(t.TempDir(), "demo.tar.gz")
	if err := os.WriteFile(file, data[:len(data)/2], 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := FromArchive(file)
	if err == nil || errors.Is(err, ErrIncompleteDownload) {
		t.Fatalf("FromArchive() error = %v, want a plain extraction error", err)
	}
}
