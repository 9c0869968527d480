// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"

	"github.com/recipekit/runner/internal/runtime"
)

var (
	// ErrArgument is the sentinel error wrapped by ArgumentError.
	ErrArgument = errors.New("argument error")

	// ErrExecution is the sentinel error wrapped by ExecutionError.
	ErrExecution = errors.New("execution failed")
)

type (
	// ArgumentError reports a binding problem found before anything runs:
	// a missing or surplus argument, an undefined placeholder or an
	// override for an unknown variable.
	ArgumentError struct {
		// Recipe is empty for errors that are not tied to one recipe.
		Recipe string
		Reason string
	}

	// ExecutionError reports the body line that stopped the plan.
	ExecutionError struct {
		Recipe string
		// Line is the expanded command text.
		Line       string
		LineNumber int
		ExitCode   runtime.ExitCode
		// Err is set when the line could not run or was interrupted.
		Err error
	}
)

func (e *ArgumentError) Error() string {
	if e.Recipe == "" {
		return fmt.Sprintf("argument error: %s", e.Reason)
	}
	return fmt.Sprintf("argument error in recipe '%s': %s", e.Recipe, e.Reason)
}

// Unwrap returns ErrArgument so callers can use errors.Is for programmatic detection.
func (e *ArgumentError) Unwrap() error { return ErrArgument }

func (e *ExecutionError) Error() string {
	switch {
	case e.Interrupted():
		return fmt.Sprintf("recipe '%s' interrupted on line %d", e.Recipe, e.LineNumber)
	case e.Err != nil:
		return fmt.Sprintf("recipe '%s' failed on line %d: %v", e.Recipe, e.LineNumber, e.Err)
	default:
		return fmt.Sprintf("recipe '%s' failed on line %d with exit code %d", e.Recipe, e.LineNumber, e.ExitCode)
	}
}

// Unwrap returns ErrExecution and the underlying cause, if any.
func (e *ExecutionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrExecution, e.Err}
	}
	return []error{ErrExecution}
}

// Interrupted reports whether the line was stopped by cancellation.
func (e *ExecutionError) Interrupted() bool {
	return e.ExitCode == runtime.ExitInterrupted && e.Err != nil
}
