// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"maps"
	"strings"

	"github.com/recipekit/runner/pkg/recipefile"
)

// binding holds the values a recipe sees: its parameters, and the subset of
// them that is exported to the environment.
type binding struct {
	values  map[string]string
	exports map[string]string
}

// bindArgs binds args to the recipe's parameters in declaration order.
// Singular parameters take one argument each, falling back to their default.
// A trailing variadic parameter takes the rest, joined by single spaces.
func bindArgs(r *recipefile.Recipe, args []string) (binding, error) {
	b := binding{
		values:  make(map[string]string, len(r.Params)),
		exports: make(map[string]string),
	}

	next := 0
	for _, p := range r.Params {
		var (
			value string
			ok    bool
		)
		switch {
		case p.Variadic() && next < len(args):
			value, ok = strings.Join(args[next:], " "), true
			next = len(args)
		case !p.Variadic() && next < len(args):
			value, ok = args[next], true
			next++
		case p.HasDefault:
			value, ok = p.Default, true
		case p.Kind == recipefile.ParamStar:
			value, ok = "", true
		}
		if !ok {
			return binding{}, &ArgumentError{
				Recipe: r.Name,
				Reason: fmt.Sprintf("missing argument for parameter '%s' (got %d, need %s); usage: %s",
					p.Name, len(args), arity(r), r.Signature()),
			}
		}
		b.values[p.Name] = value
		if p.Export {
			b.exports[p.Name] = value
		}
	}

	if next < len(args) {
		return binding{}, &ArgumentError{
			Recipe: r.Name,
			Reason: fmt.Sprintf("too many arguments (got %d, need %s); usage: %s", len(args), arity(r), r.Signature()),
		}
	}
	return b, nil
}

func arity(r *recipefile.Recipe) string {
	minArgs, maxArgs := r.MinArgs(), r.MaxArgs()
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("%d", minArgs)
	default:
		return fmt.Sprintf("%d to %d", minArgs, maxArgs)
	}
}

// scope returns the placeholder lookup for a recipe: parameters shadow file
// variables.
func (b binding) scope(variables map[string]string) map[string]string {
	out := make(map[string]string, len(variables)+len(b.values))
	maps.Copy(out, variables)
	maps.Copy(out, b.values)
	return out
}
