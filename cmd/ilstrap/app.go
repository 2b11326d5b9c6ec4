// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/ilstrap/ilstrap/internal/config"
	"github.com/ilstrap/ilstrap/internal/github"
	"github.com/ilstrap/ilstrap/internal/host"
	"github.com/ilstrap/ilstrap/internal/tui"
	"github.com/ilstrap/ilstrap/pkg/istrap"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and delegates through its fields.
	App struct {
		Config   ConfigProvider
		Hosts    HostLocatorFactory
		Releases ReleaseSourceFactory
		Confirm  ConfirmFunc

		stdout      io.Writer
		stderr      io.Writer
		interactive func() bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Hosts    HostLocatorFactory
		Releases ReleaseSourceFactory
		Confirm  ConfirmFunc
		Stdout   io.Writer
		Stderr   io.Writer
		// Interactive reports whether the user can answer a prompt.
		Interactive func() bool
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// HostLocator finds the host installation and checks privileges.
	HostLocator interface {
		Locate(ctx context.Context, explicit, configured string) (host.Location, error)
		RequireAdmin() error
	}

	// HostLocatorFactory builds a HostLocator logging to logger.
	HostLocatorFactory func(logger *log.Logger) HostLocator

	// ReleaseSourceFactory builds the tarball source for gh: references.
	ReleaseSourceFactory func(cfg *config.Config, logger *log.Logger) istrap.TarballSource

	// ConfirmFunc asks a yes/no question.
	ConfirmFunc func(opts tui.ConfirmOptions) (bool, error)

	// session is the per-invocation state shared by a command's run function.
	session struct {
		app     *App
		cfg     *config.Config
		logger  *log.Logger
		hosts   HostLocator
		verbose bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		Hosts:       deps.Hosts,
		Releases:    deps.Releases,
		Confirm:     deps.Confirm,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		interactive: deps.Interactive,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Hosts == nil {
		app.Hosts = newHostLocator
	}
	if app.Releases == nil {
		app.Releases = newReleaseSource
	}
	if app.Confirm == nil {
		app.Confirm = tui.Confirm
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.interactive == nil {
		app.interactive = func() bool { return isTerminal(os.Stdin) && isTerminal(app.stdout) }
	}
	return app
}

// newSession loads the configuration and builds the invocation logger.
// --verbose wins over ui.verbose.
func (a *App) newSession(ctx context.Context, flags *rootFlags) (*session, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}
	verbose := flags.verbose || cfg.UI.Verbose
	logger := newLogger(a.stderr, verbose)
	return &session{
		app:     a,
		cfg:     cfg,
		logger:  logger,
		hosts:   a.Hosts(logger),
		verbose: verbose,
	}, nil
}

func (s *session) stdout() io.Writer { return s.app.stdout }

func (s *session) stderr() io.Writer { return s.app.stderr }

// locate resolves the host directory from --ida, host_dir or discovery.
func (s *session) locate(ctx context.Context, explicit string) (host.Location, error) {
	loc, err := s.hosts.Locate(ctx, explicit, s.cfg.HostDir)
	if err != nil {
		return host.Location{}, err
	}
	s.logger.Debug("host located", "dir", loc.Dir, "source", loc.Source)
	return loc, nil
}

// newLogger returns the logger for one invocation. There is no global logger.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

func newHostLocator(logger *log.Logger) HostLocator {
	return host.NewLocator(host.WithLogger(logger))
}

// newReleaseSource builds the GitHub client from the github.* settings.
// GITHUB_TOKEN is honored when no token is configured.
func newReleaseSource(cfg *config.Config, logger *log.Logger) istrap.TarballSource {
	token := cfg.GitHub.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	return github.NewClient(
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithToken(token),
		github.WithHTTPClient(&http.Client{Timeout: cfg.GitHub.Timeout}),
		github.WithUserAgent(config.AppName+"/"+Version),
		github.WithLogger(logger),
	)
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
