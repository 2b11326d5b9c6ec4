// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ilstrap/ilstrap/internal/installer"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatTOML  = "toml"
	formatYAML  = "yaml"
)

type (
	listParams struct {
		hostDir string
		format  string
	}

	// listing is the structured form of `ilstrap list`.
	listing struct {
		Host     string         `json:"host" toml:"host" yaml:"host"`
		Packages []packageEntry `json:"packages" toml:"packages" yaml:"packages"`
	}

	packageEntry struct {
		Name   string `json:"name" toml:"name" yaml:"name"`
		Source string `json:"source" toml:"source" yaml:"source"`
		Linked bool   `json:"linked" toml:"linked" yaml:"linked"`
	}
)

func newListCommand(app *App, flags *rootFlags) *cobra.Command {
	p := listParams{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, flags, func(ctx context.Context, s *session) error {
				p.hostDir = flags.hostDir
				return runList(ctx, s, p)
			})
		},
	}
	cmd.Flags().StringVar(&p.format, "format", formatTable, "output format: table, json, toml or yaml")
	return cmd
}

// runList prints the manifest of the located host. Nothing is written to
// the host.
func runList(ctx context.Context, s *session, p listParams) error {
	if err := checkFormat(p.format); err != nil {
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

	out := listing{Host: loc.Dir, Packages: []packageEntry{}}
	m := env.Manifest()
	for _, name := range m.Names() {
		source, _ := m.Get(name)
		info, err := os.Lstat(filepath.Join(env.Layout().Root(), name))
		out.Packages = append(out.Packages, packageEntry{
			Name:   name,
			Source: source,
			Linked: err == nil && info.Mode()&os.ModeSymlink != 0,
		})
	}
	return renderListing(s.stdout(), out, p.format)
}

func renderListing(w io.Writer, l listing, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case formatTOML:
		return toml.NewEncoder(w).Encode(l)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(l); err != nil {
			return err
		}
		return enc.Close()
	case formatTable, "":
		return renderListingTable(w, l)
	default:
		return checkFormat(format)
	}
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatTOML, formatYAML, "":
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, json, toml or yaml)", format)
}

func renderListingTable(w io.Writer, l listing) error {
	if len(l.Packages) == 0 {
		_, _ = fmt.Fprintln(w, SubtitleStyle.Render("No packages installed in "+l.Host))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Package", "Mode", "Source"})
	for _, p := range l.Packages {
		mode := "copy"
		if p.Linked {
			mode = "link"
		}
		t.AppendRow(table.Row{p.Name, mode, p.Source})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d packages)\n", len(l.Packages))
	return nil
}
