// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ilstrap/ilstrap/internal/issue"
	"github.com/ilstrap/ilstrap/pkg/cueutil"
	"github.com/ilstrap/ilstrap/pkg/platform"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "ilstrap"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, as in ILSTRAP_HOST_DIR.
	EnvPrefix = "ILSTRAP"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema []byte

// Schema returns the embedded CUE schema.
func Schema() string {
	return string(configSchema)
}

// ConfigDir returns the ilstrap configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file opts select, whether or not it exists.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions layers defaults, the CUE file and ILSTRAP_* variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := FilePath(opts)
	if err != nil {
		return nil, err
	}

	source := ""
	switch {
	case fileExists(path):
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, loadError(path, err,
				"Check that the file contains valid CUE syntax",
				"Compare it with the schema printed by 'ilstrap config dump --schema'")
		}
		source = path
	case opts.ConfigFilePath != "":
		return nil, loadError(path, fmt.Errorf("config file not found: %s", path),
			"Verify the path given to --config",
			"Run 'ilstrap config init --config "+path+"' to create it")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loadError(path, fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, loadError(path, err, "Check ILSTRAP_* environment variables as well as the file")
	}
	cfg.source = source
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("host_dir", defaults.HostDir)
	v.SetDefault("github.api_url", defaults.GitHub.APIURL)
	v.SetDefault("github.token", defaults.GitHub.Token)
	v.SetDefault("github.timeout", defaults.GitHub.Timeout)
	v.SetDefault("install.dev_mode", defaults.Install.DevMode)
	v.SetDefault("install.overwrite", defaults.Install.Overwrite)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func loadError(path string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestions(suggestions...).
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper validates the file at path against #Config and merges it
// into v. Concrete(false) because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, "#Config", data,
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes GenerateCUE(DefaultConfig()) to path, creating parent
// directories. Without force an existing file is left alone and
// ErrConfigExists is returned.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg as a config.cue document. An empty host_dir and
// token are written as comments.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// ilstrap configuration\n")
	sb.WriteString("// Environment variables such as ILSTRAP_HOST_DIR override these values.\n\n")

	if cfg.HostDir != "" {
		fmt.Fprintf(&sb, "host_dir: %q\n", cfg.HostDir)
	} else {
		sb.WriteString("// host_dir: \"/path/to/ida\"\n")
	}

	sb.WriteString("\ngithub: {\n")
	fmt.Fprintf(&sb, "\tapi_url: %q\n", cfg.GitHub.APIURL)
	if cfg.GitHub.Token != "" {
		fmt.Fprintf(&sb, "\ttoken: %q\n", cfg.GitHub.Token)
	} else {
		sb.WriteString("\t// token: \"ghp_...\"\n")
	}
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.GitHub.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\ninstall: {\n")
	fmt.Fprintf(&sb, "\tdev_mode: %v\n", cfg.Install.DevMode)
	fmt.Fprintf(&sb, "\toverwrite: %v\n", cfg.Install.Overwrite)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
