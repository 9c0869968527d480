// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// RuntimeNative runs recipe lines with the host shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeName = "native"
	// RuntimeVirtual runs recipe lines in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeName = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRuntimeName is returned when a RuntimeName value is not recognized.
	ErrInvalidRuntimeName = errors.New("invalid runtime")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidShell is the sentinel error wrapped by InvalidShellError.
	ErrInvalidShell = errors.New("invalid shell")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeName selects the runtime used for recipe lines.
	RuntimeName string

	// InvalidRuntimeNameError is returned when a RuntimeName value is not recognized.
	InvalidRuntimeNameError struct {
		Value RuntimeName
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidShellError is returned when the shell settings are inconsistent.
	InvalidShellError struct {
		Reason string
	}

	// InvalidUIConfigError collects field-level errors of a UIConfig.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects field-level errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultRecipe runs when no target is given and the recipe file sets
		// no default of its own.
		DefaultRecipe string `json:"default_recipe" mapstructure:"default_recipe"`
		// Runtime is "native" or "virtual".
		Runtime RuntimeName `json:"runtime" mapstructure:"runtime"`
		// Shell is the program the native runtime runs lines with; empty
		// selects the platform default.
		Shell string `json:"shell" mapstructure:"shell"`
		// ShellArgs precede the line on the shell command line.
		ShellArgs []string `json:"shell_args" mapstructure:"shell_args"`
		// DotenvLoad loads .env next to the recipe file even when the file
		// does not ask for it.
		DotenvLoad bool `json:"dotenv_load" mapstructure:"dotenv_load"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Path is the file the configuration was read from; empty when only
		// defaults and environment overrides apply.
		Path string `json:"-" mapstructure:"-"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and issue help pages
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Quiet suppresses the echo of recipe lines
		Quiet bool `json:"quiet" mapstructure:"quiet"`
	}
)

// ShellCommand returns the shell program followed by its arguments, or nil
// when no shell is configured.
func (c Config) ShellCommand() []string {
	if strings.TrimSpace(c.Shell) == "" {
		return nil
	}
	return append([]string{c.Shell}, c.ShellArgs...)
}

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Verbose && c.Quiet {
		errs = append(errs, errors.New("verbose and quiet are mutually exclusive"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidUIConfig and the field errors.
func (e *InvalidUIConfigError) Unwrap() []error {
	return append([]error{ErrInvalidUIConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Runtime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.Shell) == "" && c.Shell != "" {
		errs = append(errs, &InvalidShellError{Reason: "shell must not be whitespace-only"})
	}
	if slices.Contains(c.ShellArgs, "") {
		errs = append(errs, &InvalidShellError{Reason: "shell_args must not contain empty strings"})
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidShellError.
func (e *InvalidShellError) Error() string { return "invalid shell: " + e.Reason }

// Unwrap returns ErrInvalidShell for errors.Is() compatibility.
func (e *InvalidShellError) Unwrap() error { return ErrInvalidShell }

// Error implements the error interface for InvalidRuntimeNameError.
func (e *InvalidRuntimeNameError) Error() string {
	return fmt.Sprintf("invalid runtime %q (valid: native, virtual)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidRuntimeNameError) Unwrap() error {
	return ErrInvalidRuntimeName
}

// String returns the string representation of the RuntimeName.
func (m RuntimeName) String() string { return string(m) }

// IsValid returns whether the RuntimeName is one of the defined runtimes.
func (m RuntimeName) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeNameError{Value: m}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Runtime:   RuntimeNative,
		ShellArgs: []string{"-c"},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
