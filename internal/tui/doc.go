// SPDX-License-Identifier: MPL-2.0

// Package tui holds the interactive prompts of ilstrap, built on Bubble Tea
// and styled with lipgloss.
package tui
