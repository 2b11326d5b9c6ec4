// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/ilstrap/ilstrap/pkg/platform"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
)

// Source records how a host directory was found.
type Source string

const (
	SourceFlag     Source = "flag"
	SourceConfig   Source = "config"
	SourceRegistry Source = "registry"
	SourceScan     Source = "scan"
)

// helperPrefix precedes the directory in get_path.bat output.
const helperPrefix = "IDA install:"

//go:embed scripts/get_path.bat
var getPathScript []byte

// hostDirPattern matches install directory names such as "IDA Pro 9.0",
// "idapro-8.3", "ida-free-pc-8.4" or "IDA Professional 9.1.app".
var hostDirPattern = regexp.MustCompile(`(?i)^ida[ _-]*(?:pro(?:fessional)?|free|home|teams)?(?:[ _-]*pc)?[ _-]*v?(\d+(?:\.\d+)*)?(?:\.app)?$`)

type (
	// Location is a validated host directory.
	Location struct {
		Dir    string
		Source Source
	}

	// Locator finds the host installation.
	Locator struct {
		goos       string
		logger     *log.Logger
		roots      []string
		runHelper  func(ctx context.Context) (string, error)
		isElevated func() bool
	}

	// Option configures a Locator.
	Option func(*Locator)
)

// WithGOOS overrides the target platform.
func WithGOOS(goos string) Option {
	return func(l *Locator) { l.goos = goos }
}

// WithLogger sets the logger used for discovery details.
func WithLogger(logger *log.Logger) Option {
	return func(l *Locator) { l.logger = logger }
}

// WithSearchRoots replaces the directories GuessInstallDir scans.
func WithSearchRoots(roots ...string) Option {
	return func(l *Locator) { l.roots = roots }
}

// NewLocator returns a Locator for the running platform.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		goos:       runtime.GOOS,
		logger:     log.New(os.Stderr),
		runHelper:  runGetPathScript,
		isElevated: isElevated,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.roots == nil {
		l.roots = defaultSearchRoots(l.goos)
	}
	return l
}

// Locate returns the host directory. An explicit directory (the --ida flag)
// wins over configured (host_dir). Neither falls back to discovery: a bad
// explicit or configured directory is an error.
func (l *Locator) Locate(ctx context.Context, explicit, configured string) (Location, error) {
	if !platform.IsSupported(l.goos) {
		return Location{}, fmt.Errorf("%w: %s", ErrHostNotSupported, l.goos)
	}

	for _, c := range []struct {
		dir    string
		source Source
	}{{explicit, SourceFlag}, {configured, SourceConfig}} {
		if c.dir == "" {
			continue
		}
		if !isValidHostFor(l.goos, c.dir) {
			return Location{}, fmt.Errorf("%w: %s (from %s) contains none of %s",
				ErrHostNotFound, c.dir, c.source, strings.Join(MarkerNames(l.goos), ", "))
		}
		return Location{Dir: c.dir, Source: c.source}, nil
	}

	if l.goos == platform.Windows {
		dir, err := l.runHelper(ctx)
		switch {
		case err != nil:
			l.logger.Debug("registry lookup failed", "err", err)
		case isValidHostFor(l.goos, dir):
			return Location{Dir: dir, Source: SourceRegistry}, nil
		default:
			l.logger.Debug("registry points at a non-host directory", "dir", dir)
		}
	}

	if dir := l.GuessInstallDir(); dir != "" {
		return Location{Dir: dir, Source: SourceScan}, nil
	}
	return Location{}, fmt.Errorf("%w: pass the installation directory with --ida", ErrHostNotFound)
}

// RequireAdmin fails with ErrNotAdmin on Windows when the process is not
// elevated. Other platforms always pass.
func (l *Locator) RequireAdmin() error {
	if l.goos == platform.Windows && !l.isElevated() {
		return ErrNotAdmin
	}
	return nil
}

// GuessInstallDir scans the search roots for directories named like a host
// installation and returns the valid one with the highest version, or "".
func (l *Locator) GuessInstallDir() string {
	best, bestVersion := "", ""
	for _, root := range l.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			m := hostDirPattern.FindStringSubmatch(e.Name())
			if m == nil {
				continue
			}
			dir := filepath.Join(root, e.Name())
			if l.goos == platform.Darwin && strings.HasSuffix(strings.ToLower(e.Name()), ".app") {
				dir = filepath.Join(dir, "Contents", "MacOS")
			}
			if !isValidHostFor(l.goos, dir) {
				continue
			}
			version := semver.Canonical("v" + m[1])
			l.logger.Debug("found host candidate", "dir", dir, "version", version)
			if best == "" || semver.Compare(version, bestVersion) > 0 {
				best, bestVersion = dir, version
			}
		}
	}
	return best
}

func defaultSearchRoots(goos string) []string {
	home, _ := os.UserHomeDir() //nolint:errcheck // an empty home only drops those roots
	var roots []string
	switch goos {
	case platform.Windows:
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "ProgramW6432"} {
			if v := os.Getenv(env); v != "" {
				roots = append(roots, v)
			}
		}
	case platform.Darwin:
		roots = append(roots, "/Applications")
		if home != "" {
			roots = append(roots, filepath.Join(home, "Applications"))
		}
	default:
		if home != "" {
			roots = append(roots, home, filepath.Join(home, ".local", "share"))
		}
		roots = append(roots, "/opt", "/usr/local")
	}
	return roots
}

// runGetPathScript writes the embedded helper to a temporary file and runs
// it through cmd.exe.
func runGetPathScript(ctx context.Context) (_ string, err error) {
	f, err := os.CreateTemp("", "ilstrap-get_path-*.bat")
	if err != nil {
		return "", fmt.Errorf("creating helper script: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := f.Write(getPathScript); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing helper script: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing helper script: %w", err)
	}

	out, err := exec.CommandContext(ctx, "cmd", "/C", f.Name()).Output()
	if err != nil {
		return "", fmt.Errorf("running helper script: %w", err)
	}
	return parseHelperOutput(string(out))
}

// parseHelperOutput extracts the directory from "IDA install: <dir>". The
// directory may contain spaces; a trailing separator is dropped.
func parseHelperOutput(out string) (string, error) {
	line := strings.TrimRight(out, "\r\n")
	if i := strings.LastIndexAny(line, "\r\n"); i >= 0 {
		line = line[i+1:]
	}
	if !strings.HasPrefix(line, helperPrefix) {
		return "", fmt.Errorf("unexpected helper output %q", out)
	}
	fields := strings.SplitN(line, " ", 3)
	dir := strings.TrimSpace(fields[len(fields)-1])
	if len(dir) > 3 {
		dir = strings.TrimRight(dir, `\/`)
	}
	if dir == "" {
		return "", fmt.Errorf("helper reported an empty directory")
	}
	return dir, nil
}
