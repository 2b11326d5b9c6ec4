// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestColorScheme_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme  ColorScheme
		wantErr bool
	}{
		{ColorSchemeAuto, false},
		{ColorSchemeDark, false},
		{ColorSchemeLight, false},
		{"", true},
		{"Dark", true},
	}
	for _, tt := range tests {
		err := tt.scheme.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("ColorScheme(%q).Validate() error = %v, wantErr %v", tt.scheme, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidColorScheme) {
			t.Errorf("error %v should wrap ErrInvalidColorScheme", err)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	cfg := DefaultConfig()
	cfg.GitHub.APIURL = "not a url"
	cfg.GitHub.Timeout = -time.Second
	err := cfg.Validate()

	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("Validate() error = %v, want *InvalidConfigError", err)
	}
	if len(invalid.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %v, want 2", invalid.FieldErrors)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("error should wrap ErrInvalidConfig")
	}
}

func TestConfig_Redacted(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_secret"
	if got := cfg.Redacted().GitHub.Token; got == "ghp_secret" || got == "" {
		t.Errorf("Redacted token = %q", got)
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Error("Redacted must not modify the receiver")
	}
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	cfg, err := StaticProvider{}.Load(t.Context(), LoadOptions{})
	if err != nil || cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Fatalf("StaticProvider{}.Load() = %+v, %v", cfg, err)
	}
}
