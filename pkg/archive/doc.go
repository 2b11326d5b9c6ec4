// SPDX-License-Identifier: MPL-2.0

// Package archive unpacks gzip-compressed tarballs such as GitHub release
// tarballs into a directory on disk.
package archive
