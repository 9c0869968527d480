// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the runner command line.
//
// The root command takes recipe targets as positional arguments; everything
// after "--" is bound to the last target. Flags select listing modes, the
// recipe file, variable overrides, dotenv files and the runtime.
package cmd
