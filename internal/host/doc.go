// SPDX-License-Identifier: MPL-2.0

// Package host finds and validates the installation directory of the host
// application ilstrap installs packages into.
//
// A directory is a host installation when it contains the platform's
// marker executable (ida64 or ida, with an .exe suffix on Windows). The
// Locator tries, in order, an explicit directory, the configured default,
// the Windows file association of .i64 databases, and finally a scan of the
// platform's usual application directories.
package host
