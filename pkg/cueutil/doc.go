// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON and CUE documents against embedded CUE
// schemas and decodes them into Go values. It backs the istrap.json
// descriptor and manifest readers and the user config loader.
package cueutil
