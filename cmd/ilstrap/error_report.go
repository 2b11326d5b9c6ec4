// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/ilstrap/ilstrap/internal/config"
	"github.com/ilstrap/ilstrap/internal/github"
	"github.com/ilstrap/ilstrap/internal/host"
	"github.com/ilstrap/ilstrap/internal/issue"
	"github.com/ilstrap/ilstrap/pkg/archive"
	"github.com/ilstrap/ilstrap/pkg/istrap"
)

// classifyError maps err to a process exit code and the catalog issue that
// explains it. The issue is 0 when the catalog has no guidance.
func classifyError(err error) (int, issue.Id) {
	switch {
	case errors.Is(err, host.ErrHostNotSupported):
		return ExitUnsupported, issue.HostNotSupportedId
	case errors.Is(err, host.ErrNotAdmin):
		return ExitPermission, issue.PermissionDeniedId
	case errors.Is(err, github.ErrNetwork),
		errors.Is(err, github.ErrReleaseNotFound),
		errors.Is(err, istrap.ErrIncompleteDownload):
		return ExitNetwork, issue.NetworkFailureId
	case errors.Is(err, istrap.ErrNotValidPackage),
		errors.Is(err, archive.ErrUnsafePath),
		errors.Is(err, archive.ErrTooLarge):
		return ExitMalformed, issue.ArchiveMalformedId
	case errors.Is(err, istrap.ErrInvalidManifest), errors.Is(err, istrap.ErrUnsupportedManifestVersion):
		return ExitConfig, issue.ManifestParseErrorId
	case errors.Is(err, config.ErrInvalidConfig), isConfigLoadError(err):
		return ExitConfig, issue.ConfigLoadFailedId
	case errors.Is(err, config.ErrConfigExists),
		errors.Is(err, istrap.ErrInvalidDescriptor),
		errors.Is(err, istrap.ErrInvalidPackageName):
		return ExitConfig, 0
	case errors.Is(err, host.ErrHostNotFound):
		return ExitNotFound, issue.HostNotFoundId
	case errors.Is(err, istrap.ErrDescriptorNotFound):
		return ExitNotFound, issue.DescriptorNotFoundId
	}
	return ExitNotFound, 0
}

func isConfigLoadError(err error) bool {
	is := issue.IssueOf(err)
	return is != nil && is.Id() == issue.ConfigLoadFailedId
}

// reportError prints err with its catalog guidance and converts it to the
// ExitError Execute turns into the process status.
func (a *App) reportError(err error, verbose bool, scheme config.ColorScheme) error {
	code, id := classifyError(err)

	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	if is := issue.Get(id); is != nil {
		if rendered, renderErr := is.Render(glamourStyle(a.stderr, scheme)); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return &ExitError{Code: code, Err: err}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

func glamourStyle(w io.Writer, scheme config.ColorScheme) string {
	if !isTerminal(w) {
		return "notty"
	}
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
