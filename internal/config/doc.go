// SPDX-License-Identifier: MPL-2.0

// Package config handles runner configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/runner/config.cue on Linux,
// ~/Library/Application Support/runner/config.cue on macOS and
// %APPDATA%\runner\config.cue on Windows, or from an explicit path. The file
// is validated against the embedded #Config schema (config_schema.cue) and
// RUNNER_* environment variables override its values.
package config
