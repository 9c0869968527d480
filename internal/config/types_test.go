// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"virtual runtime", func(c *Config) { c.Runtime = RuntimeVirtual }, nil},
		{"unknown runtime", func(c *Config) { c.Runtime = "container" }, ErrInvalidRuntimeName},
		{"empty runtime", func(c *Config) { c.Runtime = "" }, ErrInvalidRuntimeName},
		{"blank shell", func(c *Config) { c.Shell = "  " }, ErrInvalidShell},
		{"empty shell arg", func(c *Config) { c.ShellArgs = []string{""} }, ErrInvalidShell},
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "blue" }, ErrInvalidColorScheme},
		{"verbose and quiet", func(c *Config) { c.UI.Verbose, c.UI.Quiet = true, true }, ErrInvalidUIConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()

			if tt.wantErr == nil {
				if !valid {
					t.Errorf("IsValid() = false, %v; want valid", errs)
				}
				return
			}
			if valid || len(errs) != 1 {
				t.Fatalf("IsValid() = %v, %v; want one error", valid, errs)
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", errs[0])
			}
			if !errors.Is(errs[0], tt.wantErr) {
				t.Errorf("error should wrap %v: %v", tt.wantErr, errs[0])
			}
		})
	}
}

func TestConfig_ShellCommand(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Shell = "zsh"
	got := cfg.ShellCommand()
	if len(got) != 2 || got[0] != "zsh" || got[1] != "-c" {
		t.Errorf("ShellCommand() = %v, want [zsh -c]", got)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"":              nil,
		"runtime":       {"runtime"},
		"ui.verbose":    {"ui", "verbose"},
		"shell_args[1]": {"shell_args", "1"},
	}
	for want, path := range tests {
		if got := formatPath(path); got != want {
			t.Errorf("formatPath(%v) = %q, want %q", path, got, want)
		}
	}
}
