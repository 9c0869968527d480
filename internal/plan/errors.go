// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// maxSuggestionDistance bounds how different a suggested name may be.
const maxSuggestionDistance = 3

var (
	// ErrUnknownRecipe is the sentinel error wrapped by UnknownRecipeError.
	ErrUnknownRecipe = errors.New("unknown recipe")
	// ErrDependencyCycle is the sentinel error wrapped by DependencyCycleError.
	ErrDependencyCycle = errors.New("dependency cycle")
)

type (
	// UnknownRecipeError is returned when a target or dependency names a recipe
	// that is not in the table.
	UnknownRecipeError struct {
		Name string
		// ReferencedBy is the recipe listing Name as a dependency; empty when
		// Name was requested directly.
		ReferencedBy string
		// Suggestion is the closest existing recipe name, if any is close enough.
		Suggestion string
	}

	// DependencyCycleError is returned when recipe dependencies form a cycle.
	DependencyCycleError struct {
		// Path lists the recipes along the cycle; the first and last are equal.
		Path []string
	}
)

// Error implements the error interface.
func (e *UnknownRecipeError) Error() string {
	var sb strings.Builder
	if e.ReferencedBy != "" {
		fmt.Fprintf(&sb, "recipe '%s' depends on unknown recipe '%s'", e.ReferencedBy, e.Name)
	} else {
		fmt.Fprintf(&sb, "unknown recipe '%s'", e.Name)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, " (did you mean '%s'?)", e.Suggestion)
	}
	return sb.String()
}

// Unwrap returns ErrUnknownRecipe so callers can use errors.Is for programmatic detection.
func (e *UnknownRecipeError) Unwrap() error { return ErrUnknownRecipe }

// Error implements the error interface.
func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrDependencyCycle so callers can use errors.Is for programmatic detection.
func (e *DependencyCycleError) Unwrap() error { return ErrDependencyCycle }

// suggest returns the candidate closest to name by edit distance, or "" when
// none is within maxSuggestionDistance.
func suggest(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, c := range candidates {
		if d := levenshtein.Distance(name, c, nil); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
