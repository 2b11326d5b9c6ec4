// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ilstrap/ilstrap/internal/config"
	"github.com/ilstrap/ilstrap/internal/host"
	"github.com/ilstrap/ilstrap/internal/testutil"
	"github.com/ilstrap/ilstrap/internal/tui"
	"github.com/ilstrap/ilstrap/pkg/istrap"

	"github.com/charmbracelet/log"
)

type (
	// harness runs commands against a temporary host installation.
	harness struct {
		app    *App
		cfg    *config.Config
		host   string
		stdout *bytes.Buffer
		stderr *bytes.Buffer

		// answer is returned by the confirmation prompt.
		answer bool
		asked  int
	}

	fakeLocator struct {
		loc      host.Location
		err      error
		adminErr error
	}
)

func (f *fakeLocator) Locate(context.Context, string, string) (host.Location, error) {
	return f.loc, f.err
}

func (f *fakeLocator) RequireAdmin() error { return f.adminErr }

// newHarness creates a valid host directory and an App that detects it
// only through --ida or host_dir. locator may be nil for the real one.
func newHarness(t *testing.T, locator HostLocator) *harness {
	t.Helper()

	h := &harness{
		cfg:    config.DefaultConfig(),
		host:   realTempDir(t),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	testutil.MustWriteFile(t, filepath.Join(h.host, host.MarkerNames(runtime.GOOS)[0]), "")

	emptyRoot := t.TempDir()
	hosts := func(logger *log.Logger) HostLocator {
		if locator != nil {
			return locator
		}
		return host.NewLocator(host.WithLogger(logger), host.WithSearchRoots(emptyRoot))
	}

	h.app = NewApp(Dependencies{
		Config: config.StaticProvider{Config: h.cfg},
		Hosts:  hosts,
		Confirm: func(tui.ConfirmOptions) (bool, error) {
			h.asked++
			return h.answer, nil
		},
		Stdout:      h.stdout,
		Stderr:      h.stderr,
		Interactive: func() bool { return true },
	})
	return h
}

// execute runs the command tree with args.
func (h *harness) execute(args ...string) error {
	root := newRootCommand(h.app)
	root.SetArgs(args)
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(context.Background())
}

func (h *harness) session(t *testing.T) *session {
	t.Helper()
	s, err := h.app.newSession(context.Background(), &rootFlags{})
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	return s
}

func (h *harness) root() string { return host.Layout{Dir: h.host}.Root() }

func (h *harness) manifest(t *testing.T) *istrap.Manifest {
	t.Helper()
	m, err := istrap.LoadManifest(filepath.Join(h.root(), istrap.ManifestFile))
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	return m
}

func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// writeDemo writes a package named demo into a fresh directory.
func writeDemo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(realTempDir(t), "demo-src")
	testutil.MustWriteFile(t, filepath.Join(dir, istrap.DescriptorFile),
		`{"name": "demo", "version": "0.1.0", "load_paths": ["mods"]}`)
	testutil.MustWriteFile(t, filepath.Join(dir, "mods", "demo", "__init__.py"), "X = 1\n")
	return dir
}

// releaseServer serves a GitHub-style latest release for owner/demo whose
// tarball is archive.
func releaseServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/demo/releases/latest":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"tag_name":"v0.3.0","tarball_url":"` + srv.URL + `/tarball/v0.3.0"}`))
		case "/tarball/v0.3.0":
			_, _ = w.Write(archive)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
