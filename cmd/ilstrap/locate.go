// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/ilstrap/ilstrap/internal/host"

	"github.com/spf13/cobra"
)

func newLocateCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show the detected IDA installation",
		Long: `Show the detected IDA installation and how it was found.

The directory comes from --ida, then host_dir in the configuration file,
then the Windows file association for .i64, then a scan of the usual
install locations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(ctx context.Context, s *session) error {
				_, err := runLocate(ctx, s, flags.hostDir)
				return err
			})
		},
	}
}

func runLocate(ctx context.Context, s *session, explicit string) (host.Location, error) {
	loc, err := s.locate(ctx, explicit)
	if err != nil {
		return host.Location{}, err
	}
	fmt.Fprintf(s.stdout(), "%s %s\n", PathStyle.Render(loc.Dir), SubtitleStyle.Render("("+string(loc.Source)+")"))
	return loc, nil
}
