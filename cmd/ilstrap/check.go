// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ilstrap/ilstrap/internal/installer"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type checkParams struct {
	hostDir string
}

func newCheckCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every installed package still loads",
		Long: `Verify every installed package still loads.

For each manifest entry, check reports whether the recorded source exists,
whether the installed copy or link is present, whether its istrap.json
parses, whether its loader and plugin entry points exist, and the module
paths the host will add to sys.path.
The command exits with status 1 when any entry is broken.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(ctx context.Context, s *session) error {
				return runCheck(ctx, s, checkParams{hostDir: flags.hostDir})
			})
		},
	}
}

func runCheck(ctx context.Context, s *session, p checkParams) error {
	loc, err := s.locate(ctx, p.hostDir)
	if err != nil {
		return err
	}
	env := installer.New(loc.Dir, s.logger)
	if err := env.Load(); err != nil {
		return err
	}
	statuses, err := env.Check()
	if err != nil {
		return err
	}

	broken := renderStatuses(s.stdout(), statuses)
	if broken > 0 {
		fmt.Fprintf(s.stderr(), "%s %d of %d packages are broken\n", ErrorStyle.Render("✗"), broken, len(statuses))
		return &ExitError{Code: ExitNotFound}
	}
	return nil
}

// renderStatuses prints one row per entry and returns the broken count.
func renderStatuses(w io.Writer, statuses []installer.Status) int {
	if len(statuses) == 0 {
		_, _ = fmt.Fprintln(w, SubtitleStyle.Render("No packages installed"))
		return 0
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Package", "Version", "Mode", "Source", "Status", "Module paths"})

	broken := 0
	for _, st := range statuses {
		mode := "copy"
		if st.Linked {
			mode = "link"
		}
		source := "present"
		if !st.SourceExists {
			source = "missing"
		}
		status := "ok"
		if st.Broken() {
			broken++
			status = st.Err.Error()
		}
		t.AppendRow(table.Row{st.Name, st.Version, mode, source, status, strings.Join(st.ModulePaths, "\n")})
	}
	t.Render()
	return broken
}
