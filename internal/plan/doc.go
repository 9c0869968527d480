// SPDX-License-Identifier: MPL-2.0

// Package plan resolves requested recipes into a linear execution plan.
//
// The resolver validates the whole recipe table when it is built: every
// dependency must name an existing recipe and the dependency graph must be
// acyclic. Resolving targets then flattens their dependency closures into a
// single ordered list in which every recipe appears once and after all of
// its prerequisites.
package plan
