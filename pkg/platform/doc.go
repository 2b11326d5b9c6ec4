// SPDX-License-Identifier: MPL-2.0

// Package platform holds OS identifiers and file-naming rules shared by the
// host locator and the package installer.
package platform
