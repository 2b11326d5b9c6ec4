// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ilstrap/ilstrap/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags are the persistent flags every subcommand sees.
type rootFlags struct {
	verbose    bool
	configPath string
	hostDir    string
}

// newRootCommand builds the command tree. The root command itself installs
// a package.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	install := &installFlags{}

	rootCmd := &cobra.Command{
		Use:   "ilstrap [project_path]",
		Short: "Install Python packages into an IDA installation",
		Long: TitleStyle.Render("ilstrap") + SubtitleStyle.Render(" - a package installer for IDA Python plugins") + `

ilstrap copies (or links) a package described by istrap.json into the host's
plugin tree and records it in a manifest the host-side loader reads at
startup.

` + SubtitleStyle.Render("Examples:") + `
  ilstrap                       Install the package in the current directory
  ilstrap ./mypkg --dev_mode    Link ./mypkg so edits are picked up live
  ilstrap pkg.tar.gz            Install from a local release archive
  ilstrap --gh owner/repo       Install the latest GitHub release
  ilstrap list                  Show installed packages`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(ctx context.Context, s *session) error {
				p, err := install.params(cmd, args, s.cfg)
				if err != nil {
					return err
				}
				p.hostDir = flags.hostDir
				_, err = runInstall(ctx, s, p)
				return err
			})
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <config dir>/ilstrap/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.hostDir, "ida", "", "IDA installation directory (skips detection)")

	install.register(rootCmd.Flags())

	rootCmd.AddCommand(
		newListCommand(app, flags),
		newCheckCommand(app, flags),
		newUninstallCommand(app, flags),
		newLocateCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// run resolves a session and reports whatever fn returns. Errors are
// printed here, so RunE handlers return an ExitError that only carries the
// status.
func (a *App) run(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, s *session) error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	s, err := a.newSession(cmd.Context(), flags)
	if err != nil {
		return a.reportError(err, flags.verbose, config.ColorSchemeAuto)
	}
	if err := fn(cmd.Context(), s); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Err == nil {
			return err
		}
		return a.reportError(err, s.verbose, s.cfg.UI.ColorScheme)
	}
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status of the failed command.
// It is called by main.main.
func Execute() {
	rootCmd := newRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitNotFound)
	}
}

// errorHandler defers to fang for Cobra usage errors. Command failures were
// already reported by App.run.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
