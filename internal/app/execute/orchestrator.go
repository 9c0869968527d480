// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"

	"github.com/recipekit/runner/internal/runtime"
)

// ErrInvalidRuntimeSelection is the sentinel error wrapped by InvalidRuntimeSelectionError.
var ErrInvalidRuntimeSelection = errors.New("invalid runtime selection")

// InvalidRuntimeSelectionError is returned when the requested runtime name is
// not a known runtime. Source names where the value came from.
type InvalidRuntimeSelectionError struct {
	Source string
	Err    error
}

// Error implements the error interface for InvalidRuntimeSelectionError.
func (e *InvalidRuntimeSelectionError) Error() string {
	return fmt.Sprintf("invalid runtime in %s: %v", e.Source, e.Err)
}

// Unwrap returns ErrInvalidRuntimeSelection for errors.Is() compatibility.
func (e *InvalidRuntimeSelectionError) Unwrap() []error {
	return []error{ErrInvalidRuntimeSelection, e.Err}
}

// ResolveRuntime applies runtime-selection precedence:
//  1. CLI override
//  2. Config default runtime
//  3. native
//
// The chosen runtime is looked up in reg, which also checks that it can run
// on this host.
func ResolveRuntime(reg *runtime.Registry, override, configured string) (runtime.Runtime, error) {
	name, source := runtime.TypeNative.String(), "default"
	switch {
	case override != "":
		name, source = override, "--runtime flag"
	case configured != "":
		name, source = configured, "config"
	}

	typ, err := runtime.ParseType(name)
	if err != nil {
		return nil, &InvalidRuntimeSelectionError{Source: source, Err: err}
	}
	return reg.Get(typ)
}
