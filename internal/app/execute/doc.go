// SPDX-License-Identifier: MPL-2.0

// Package execute runs execution plans. It binds invocation arguments,
// expands placeholders and checks the whole plan before the first line
// runs, then hands each body line to a runtime strictly in order and stops
// at the first failure.
package execute
