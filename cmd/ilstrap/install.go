// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ilstrap/ilstrap/internal/config"
	"github.com/ilstrap/ilstrap/internal/installer"
	"github.com/ilstrap/ilstrap/pkg/istrap"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errRefConflict is returned when both --gh and a project path are given.
var errRefConflict = errors.New("--gh and project_path are mutually exclusive")

type (
	// installFlags are the raw values of the root command's install flags.
	installFlags struct {
		repo      string
		devMode   bool
		overwrite bool
	}

	// installParams is everything runInstall needs, after flags and
	// configuration defaults are merged.
	installParams struct {
		ref       string
		repo      string
		hostDir   string
		devMode   bool
		overwrite bool
	}
)

func (f *installFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.repo, "gh", "", "install the latest release of a GitHub repository (owner/repo)")
	fs.BoolVar(&f.devMode, "dev_mode", false, "install via symbolic link")
	fs.BoolVar(&f.overwrite, "overwrite", true, "replace an existing installation")
}

// params merges the flags with install.* defaults. A flag the user did not
// pass leaves the configured value in place.
func (f *installFlags) params(cmd *cobra.Command, args []string, cfg *config.Config) (installParams, error) {
	p := installParams{
		ref:       ".",
		repo:      f.repo,
		devMode:   cfg.Install.DevMode,
		overwrite: cfg.Install.Overwrite,
	}
	if len(args) > 0 {
		if f.repo != "" {
			return installParams{}, errRefConflict
		}
		p.ref = args[0]
	}
	if cmd.Flags().Changed("dev_mode") {
		p.devMode = f.devMode
	}
	if cmd.Flags().Changed("overwrite") {
		p.overwrite = f.overwrite
	}
	return p, nil
}

// runInstall is the core install flow, separated from Cobra for testability.
//
// Flow:
//  1. Check privileges, then locate the host.
//  2. Resolve the reference through the loader registry.
//  3. Open the host environment and install the package.
//
// A failure after step 3 began leaves whatever was already written in place.
func runInstall(ctx context.Context, s *session, p installParams) (installer.Result, error) {
	if err := s.hosts.RequireAdmin(); err != nil {
		return installer.Result{}, err
	}
	loc, err := s.locate(ctx, p.hostDir)
	if err != nil {
		return installer.Result{}, err
	}

	ref := p.ref
	if p.repo != "" {
		ref = istrap.RemoteRef(p.repo)
	}
	registry := istrap.DefaultRegistry(s.app.Releases(s.cfg, s.logger))
	d, err := registry.Resolve(ctx, ref)
	if err != nil {
		return installer.Result{}, err
	}
	s.logger.Debug("package resolved", "name", d.Name, "version", d.Version, "source", d.SourcePath())

	env := installer.New(loc.Dir, s.logger)
	if err := env.Open(); err != nil {
		_ = d.Close()
		return installer.Result{}, err
	}
	res, err := env.Install(d, installer.InstallOptions{DevMode: p.devMode, Overwrite: p.overwrite})
	if closeErr := env.Close(); closeErr != nil {
		s.logger.Warn("cleanup failed", "err", closeErr)
	}
	if err != nil {
		return installer.Result{}, err
	}

	printInstallResult(s.stdout(), res)
	return res, nil
}

func printInstallResult(w io.Writer, res installer.Result) {
	name := TitleStyle.Render(res.Name)
	if res.Version != "" {
		name += " " + SubtitleStyle.Render(res.Version)
	}
	fmt.Fprintf(w, "%s Installed %s\n", SuccessStyle.Render("✓"), name)

	placed := "copied to"
	if res.Linked {
		placed = "linked at"
	}
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render(placed), PathStyle.Render(res.Target))
}
