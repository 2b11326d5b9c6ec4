// SPDX-License-Identifier: MPL-2.0

// Package github is a minimal client for the GitHub Releases API. It resolves
// the latest release of a repository and streams its source tarball.
package github
