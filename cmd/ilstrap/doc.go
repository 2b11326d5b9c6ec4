// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the ilstrap command line: the root install command
// and the list, check, uninstall, locate and config subcommands.
//
// Command handlers stay thin. Each one resolves a session (configuration
// and logger) from the App and hands off to a runX function that takes a
// params struct, so the behavior can be tested without Cobra.
package cmd
