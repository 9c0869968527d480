// SPDX-License-Identifier: MPL-2.0

package runtime

// Result is the outcome of running one line.
type Result struct {
	// ExitCode is the exit status of the line.
	ExitCode ExitCode
	// Error is set when the line could not be run (shell missing, parse
	// failure, cancellation). A plain non-zero exit leaves it nil.
	Error error
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Success returns true if the line exited 0 without error.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil
}
