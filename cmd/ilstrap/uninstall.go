// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ilstrap/ilstrap/internal/installer"
	"github.com/ilstrap/ilstrap/internal/issue"
	"github.com/ilstrap/ilstrap/internal/tui"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"
)

// errConfirmationRequired is returned when uninstall cannot prompt and
// --yes was not given.
var errConfirmationRequired = errors.New("confirmation required: rerun with --yes")

type uninstallParams struct {
	name    string
	hostDir string
	yes     bool
}

func newUninstallCommand(app *App, flags *rootFlags) *cobra.Command {
	p := uninstallParams{}
	cmd := &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed package",
		Long: `Remove an installed package.

The installed copy (or link) under plugins/ilstrap and the manifest entry
are removed. The package's source directory is left alone.`,
		Example: `  # Remove a package, asking first
  ilstrap uninstall demo

  # Skip the confirmation prompt
  ilstrap uninstall demo --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(ctx context.Context, s *session) error {
				p.name = args[0]
				p.hostDir = flags.hostDir
				return runUninstall(ctx, s, p)
			})
		},
	}
	cmd.Flags().BoolVarP(&p.yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runUninstall(ctx context.Context, s *session, p uninstallParams) error {
	if err := s.hosts.RequireAdmin(); err != nil {
		return err
	}
	loc, err := s.locate(ctx, p.hostDir)
	if err != nil {
		return err
	}
	env := installer.New(loc.Dir, s.logger)
	if err := env.Load(); err != nil {
		return err
	}

	m := env.Manifest()
	if _, ok := m.Get(p.name); !ok {
		return notInstalledError(p.name, m.Names())
	}

	if !p.yes {
		if !s.app.interactive() {
			return errConfirmationRequired
		}
		ok, err := s.app.Confirm(tui.ConfirmOptions{
			Title:       fmt.Sprintf("Uninstall %s?", p.name),
			Description: filepath.Join(env.Layout().Root(), p.name),
			Affirmative: "Uninstall",
			Negative:    "Keep",
		})
		if err != nil && !errors.Is(err, tui.ErrCancelled) {
			return err
		}
		if !ok {
			fmt.Fprintln(s.stdout(), SubtitleStyle.Render("Nothing removed."))
			return nil
		}
	}

	if err := env.Uninstall(p.name); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout(), "%s Uninstalled %s\n", SuccessStyle.Render("✓"), TitleStyle.Render(p.name))
	return nil
}

// notInstalledError wraps installer.ErrNotInstalled, suggesting the closest
// installed name when there is a plausible one.
func notInstalledError(name string, installed []string) error {
	err := fmt.Errorf("%w: %s", installer.ErrNotInstalled, name)
	ec := issue.NewErrorContext().
		WithOperation("uninstall package").
		WithResource(name)
	if near := closestName(name, installed); near != "" {
		ec.WithSuggestion(fmt.Sprintf("Did you mean %q?", near))
	}
	ec.WithSuggestion("Run 'ilstrap list' to see installed packages")
	return ec.Wrap(err).BuildError()
}

// closestName returns the candidate with the smallest edit distance to name,
// or "" when none is within a third of the name's length (at least 2).
func closestName(name string, candidates []string) string {
	limit := max(2, len(name)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
