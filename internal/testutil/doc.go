// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on error:
// environment and working-directory overrides, file fixtures, directory tree
// snapshots and in-memory tarballs.
package testutil
