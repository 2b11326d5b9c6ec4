// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	DescriptorNotFoundId Id = iota + 1
	HostNotFoundId
	HostNotSupportedId
	PermissionDeniedId
	NetworkFailureId
	ArchiveMalformedId
	ManifestParseErrorId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // lookup key
	mdMsg    MarkdownMsg // rendered through glamour
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the message followed by a "See also" list when the issue
// carries links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	descriptorNotFoundIssue = &Issue{
		id: DescriptorNotFoundId,
		mdMsg: `
# No package descriptor found!

ilstrap expects an ` + "`istrap.json`" + ` at the root of the package you install.

## Things you can try:
- Run ilstrap from the package directory, or pass its path:
~~~
$ ilstrap path/to/package
~~~

- Install the latest GitHub release instead:
~~~
$ ilstrap --gh owner/repo
~~~

## Minimal descriptor:
~~~json
{
  "name": "my_package",
  "version": "0.1.0",
  "load_paths": ["src"],
  "loaders": ["my_loader.py"],
  "plugins": ["my_plugin.py"]
}
~~~`,
	}

	hostNotFoundIssue = &Issue{
		id: HostNotFoundId,
		mdMsg: `
# Host application not found!

ilstrap could not find an installation containing the host executable.

## Things you can try:
- Point ilstrap at the installation directory:
~~~
$ ilstrap --ida /opt/idapro-9.0
~~~

- Or record it once in the configuration file:
~~~cue
host_dir: "/opt/idapro-9.0"
~~~

- Check where ilstrap looks:
~~~
$ ilstrap locate
~~~`,
	}

	hostNotSupportedIssue = &Issue{
		id: HostNotSupportedId,
		mdMsg: `
# Operating system not supported!

ilstrap installs packages on Windows, macOS and Linux only.`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Administrator rights required!

The host installation lives in a protected directory, so ilstrap must run
elevated to write its plugins and loaders.

## Things you can try:
- Re-run ilstrap from a terminal started with "Run as administrator"
- Or install the host into a directory you own and pass it with ` + "`--ida`",
	}

	networkFailureIssue = &Issue{
		id: NetworkFailureId,
		mdMsg: `
# Could not fetch the release!

Downloading the latest release from GitHub failed.

## Things you can try:
- Check the repository name and that it has a published release
- Check your network connection or proxy settings
- When rate limited, provide a token:
~~~
$ export ILSTRAP_GITHUB_TOKEN=ghp_...
~~~`,
		extLinks: []HttpLink{"https://docs.github.com/rest/using-the-rest-api/rate-limits-for-the-rest-api"},
	}

	archiveMalformedIssue = &Issue{
		id: ArchiveMalformedId,
		mdMsg: `
# Not a valid package archive!

The archive could not be extracted, or it contains no ` + "`istrap.json`" + ` at its
root or inside its single top-level directory.

## Things you can try:
- Make sure the release tarball contains the package descriptor
- Try installing from a local checkout of the repository`,
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Installed package manifest is unreadable!

The manifest at ` + "`plugins/ilstrap/istrap.json`" + ` inside the host installation is
corrupt or was written by a newer ilstrap.

## Things you can try:
- Upgrade ilstrap
- Inspect the file and fix its JSON, or move it away and reinstall your packages
~~~
$ ilstrap check
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the ilstrap configuration file.

## Things you can try:
- Check where the configuration is read from:
~~~
$ ilstrap config path
~~~

- Regenerate a default configuration:
~~~
$ ilstrap config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	issues = map[Id]*Issue{
		descriptorNotFoundIssue.Id(): descriptorNotFoundIssue,
		hostNotFoundIssue.Id():       hostNotFoundIssue,
		hostNotSupportedIssue.Id():   hostNotSupportedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
		networkFailureIssue.Id():     networkFailureIssue,
		archiveMalformedIssue.Id():   archiveMalformedIssue,
		manifestParseErrorIssue.Id(): manifestParseErrorIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
	}
)

// Values returns every catalogued issue ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
