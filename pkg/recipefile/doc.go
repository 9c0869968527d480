// SPDX-License-Identifier: MPL-2.0

// Package recipefile parses runner recipe files into an immutable recipe table.
//
// A recipe file is line oriented. Top-level lines declare recipes
// (`name param... : dep...`), file variables (`name := value`,
// `export name := value`) and settings (`set name := value`). Indented lines
// following a recipe header form that recipe's body; each body line is an
// opaque command string that may contain `{{name}}` placeholders. Comment lines
// start with `#` and are dropped before structural parsing; a comment directly
// above a recipe header becomes the recipe's doc string.
package recipefile
