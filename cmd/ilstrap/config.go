// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/ilstrap/ilstrap/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCommand creates the `ilstrap config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ilstrap configuration",
		Long: `Manage ilstrap configuration.

Configuration is stored in:
  - Linux: ~/.config/ilstrap/config.cue
  - macOS: ~/Library/Application Support/ilstrap/config.cue
  - Windows: %APPDATA%\ilstrap\config.cue

ILSTRAP_* environment variables (for example ILSTRAP_GITHUB_TOKEN)
override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(_ context.Context, s *session) error {
				return showConfig(s)
			})
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return app.reportError(err, flags.verbose, config.ColorSchemeAuto)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			if err := initConfig(app, flags.configPath, force); err != nil {
				return app.reportError(err, flags.verbose, config.ColorSchemeAuto)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	var schema bool
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schema {
				fmt.Fprint(app.stdout, config.Schema())
				return nil
			}
			return app.run(cmd, flags, func(_ context.Context, s *session) error {
				fmt.Fprint(s.stdout(), config.GenerateCUE(s.cfg))
				return nil
			})
		},
	}
	dumpCmd.Flags().BoolVar(&schema, "schema", false, "print the CUE schema instead")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

// showConfig prints where the configuration came from and its values with
// the token redacted.
func showConfig(s *session) error {
	w := s.stdout()
	fmt.Fprintln(w, TitleStyle.Render("Configuration"))
	source := s.cfg.Source()
	if source == "" {
		source = "(defaults and environment)"
	}
	fmt.Fprintf(w, "%s %s\n\n", SubtitleStyle.Render("Source:"), PathStyle.Render(source))

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.cfg.Redacted()); err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}
	return enc.Close()
}

func initConfig(app *App, explicit string, force bool) error {
	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: explicit})
	if err != nil {
		return err
	}
	if err := config.WriteDefault(path, force); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), PathStyle.Render(path))
	return nil
}
