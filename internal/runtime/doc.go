// SPDX-License-Identifier: MPL-2.0

// Package runtime runs single recipe body lines.
//
// Two runtime implementations are available:
//   - native: hands the line to the host shell (`sh -c` unless configured otherwise)
//   - virtual: interprets the line with an embedded POSIX shell (mvdan/sh)
//
// Both implement the Runtime interface. A Command carries the expanded line,
// its working directory, an immutable Env and the I/O streams. Runtimes never
// return Go errors for ordinary non-zero exits: the exit status is reported
// in Result.ExitCode and Result.Error is reserved for failures to start or
// interpret the line.
//
// Env is an immutable name/value set. Layers are added with Env.With, which
// returns a new value, so a per-recipe overlay can never leak into another
// recipe.
package runtime
