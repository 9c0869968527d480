// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the runner CLI.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Errors may link to a page of the issue catalog, which is
// Markdown rendered with glamour when verbose output is requested.
package issue
