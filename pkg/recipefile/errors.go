// SPDX-License-Identifier: MPL-2.0

package recipefile

import (
	"errors"
	"fmt"
)

// ErrSyntax is the sentinel error wrapped by SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports a malformed recipe file. Line is 1-based; Text holds the
// offending source line when one is available.
type SyntaxError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return fmt.Sprintf("%s: syntax error: %s", loc, e.Reason)
}

// Unwrap returns ErrSyntax so callers can use errors.Is for programmatic detection.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
