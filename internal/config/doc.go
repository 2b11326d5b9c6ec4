// SPDX-License-Identifier: MPL-2.0

// Package config loads ilstrap settings with Viper, using CUE as the file
// format.
//
// The file lives at config.cue inside ConfigDir: $XDG_CONFIG_HOME/ilstrap on
// Linux, ~/Library/Application Support/ilstrap on macOS and
// %APPDATA%\ilstrap on Windows. It is validated against the embedded
// config_schema.cue. ILSTRAP_* environment variables override file values,
// with dots in keys replaced by underscores (ILSTRAP_GITHUB_TOKEN).
package config
