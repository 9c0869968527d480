// SPDX-License-Identifier: MPL-2.0

package plan

import (
	"errors"
	"fmt"
	"slices"

	"github.com/recipekit/runner/internal/dag"
	"github.com/recipekit/runner/pkg/recipefile"
)

type (
	// Step is one recipe of a plan together with the arguments bound to it.
	Step struct {
		Recipe *recipefile.Recipe
		// Args are the invocation arguments; only the last requested recipe
		// receives any.
		Args []string
		// Requested marks recipes named on the command line, as opposed to
		// recipes pulled in as dependencies.
		Requested bool
	}

	// Plan is the ordered, duplicate-free list of recipes to run.
	Plan struct {
		Steps []Step
	}

	// Resolver turns target names into plans for one recipe table.
	Resolver struct {
		table *recipefile.Table
		graph *dag.Graph
	}
)

// NewResolver validates the table's dependency graph and returns a resolver
// for it. Unknown dependencies yield UnknownRecipeError and cycles yield
// DependencyCycleError; both are reported before anything runs.
func NewResolver(tbl *recipefile.Table) (*Resolver, error) {
	g := dag.New()
	for _, r := range tbl.Recipes() {
		g.AddNode(r.Name)
	}
	for _, r := range tbl.Recipes() {
		for _, dep := range r.Dependencies {
			if _, ok := tbl.Get(dep); !ok {
				return nil, &UnknownRecipeError{
					Name:         dep,
					ReferencedBy: r.Name,
					Suggestion:   suggest(dep, tbl.Names()),
				}
			}
			g.AddEdge(dep, r.Name)
		}
	}

	if _, err := g.TopologicalSort(); err != nil {
		return nil, convertGraphError(err)
	}
	return &Resolver{table: tbl, graph: g}, nil
}

// Resolve builds the plan for targets, run left to right. args are bound to
// the last target. Every recipe appears once, after all of its dependencies;
// a target that already ran as a dependency of an earlier target is not run
// again.
func (r *Resolver) Resolve(targets []string, args []string) (*Plan, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no recipe requested")
	}
	for _, name := range targets {
		if !r.graph.Has(name) {
			return nil, &UnknownRecipeError{Name: name, Suggestion: suggest(name, r.table.Names())}
		}
	}

	order, err := r.graph.Order(targets...)
	if err != nil {
		return nil, convertGraphError(err)
	}

	last := targets[len(targets)-1]
	p := &Plan{Steps: make([]Step, 0, len(order))}
	for _, name := range order {
		recipe, _ := r.table.Get(name)
		step := Step{Recipe: recipe, Requested: slices.Contains(targets, name)}
		if name == last {
			step.Args = slices.Clone(args)
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Names returns the recipe names of the plan in execution order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Recipe.Name
	}
	return names
}

// Len returns the number of steps.
func (p *Plan) Len() int { return len(p.Steps) }

func convertGraphError(err error) error {
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		return &DependencyCycleError{Path: cycle.Cycle}
	}
	var unknown *dag.UnknownNodeError
	if errors.As(err, &unknown) {
		return &UnknownRecipeError{Name: unknown.Name}
	}
	return err
}

// Lookup returns the named recipe of tbl, or an UnknownRecipeError carrying
// the closest known name.
func Lookup(tbl *recipefile.Table, name string) (*recipefile.Recipe, error) {
	if r, ok := tbl.Get(name); ok {
		return r, nil
	}
	return nil, &UnknownRecipeError{Name: name, Suggestion: suggest(name, tbl.Names())}
}
