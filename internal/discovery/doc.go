// SPDX-License-Identifier: MPL-2.0

// Package discovery locates the recipe file for an invocation.
//
// Without an explicit path the search starts in the base directory and walks
// up through every parent until a directory holds a recipe file.
package discovery
