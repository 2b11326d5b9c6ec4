// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	// DefaultGitHubAPIURL is the public GitHub REST endpoint.
	DefaultGitHubAPIURL = "https://api.github.com"
	// DefaultGitHubTimeout bounds a single GitHub request. Zero means no
	// timeout; Ctrl-C still cancels.
	DefaultGitHubTimeout time.Duration = 0
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// Config is the complete ilstrap configuration.
	Config struct {
		// HostDir is the host installation used when --ida is not given.
		HostDir string        `json:"host_dir" mapstructure:"host_dir" toml:"host_dir" yaml:"host_dir"`
		GitHub  GitHubConfig  `json:"github" mapstructure:"github" toml:"github" yaml:"github"`
		Install InstallConfig `json:"install" mapstructure:"install" toml:"install" yaml:"install"`
		UI      UIConfig      `json:"ui" mapstructure:"ui" toml:"ui" yaml:"ui"`

		source string
	}

	// GitHubConfig configures release downloads.
	GitHubConfig struct {
		APIURL  string        `json:"api_url" mapstructure:"api_url" toml:"api_url" yaml:"api_url"`
		Token   string        `json:"token,omitempty" mapstructure:"token" toml:"token,omitempty" yaml:"token,omitempty"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout" toml:"timeout" yaml:"timeout"`
	}

	// InstallConfig holds defaults for install flags.
	InstallConfig struct {
		DevMode   bool `json:"dev_mode" mapstructure:"dev_mode" toml:"dev_mode" yaml:"dev_mode"`
		Overwrite bool `json:"overwrite" mapstructure:"overwrite" toml:"overwrite" yaml:"overwrite"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose" yaml:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme" yaml:"color_scheme"`
	}

	// InvalidConfigError lists every invalid field of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:  DefaultGitHubAPIURL,
			Timeout: DefaultGitHubTimeout,
		},
		Install: InstallConfig{
			DevMode:   false,
			Overwrite: true,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Source returns the file the configuration was read from, or "" when only
// defaults and environment variables applied.
func (c *Config) Source() string {
	return c.source
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.GitHub.Token != "" {
		out.GitHub.Token = "********"
	}
	return &out
}

// Validate checks constraints that survive environment overrides, which the
// CUE schema never sees.
func (c *Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if u, err := url.Parse(c.GitHub.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("github.api_url: %q is not an http(s) URL", c.GitHub.APIURL))
	}
	if c.GitHub.Timeout < 0 {
		errs = append(errs, fmt.Errorf("github.timeout: must not be negative, got %s", c.GitHub.Timeout))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate reports an error wrapping ErrInvalidColorScheme for unknown values.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (want auto, dark or light)", ErrInvalidColorScheme, string(s))
	}
}

// String returns the string representation of the ColorScheme.
func (s ColorScheme) String() string { return string(s) }
