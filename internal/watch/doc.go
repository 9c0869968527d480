// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs an invocation when files change.
//
// Events under the base directory are filtered by doublestar patterns and
// coalesced over a debounce window; each batch triggers one OnChange call.
// Calls never overlap: a batch that arrives during a run waits for it, or
// cancels it when Restart is set.
package watch
