// SPDX-License-Identifier: MPL-2.0

// Package dag provides the directed graph used to order recipe dependencies.
// Nodes are recipe names; an edge from A to B means A must complete before B.
// Ordering is a depth-first post-order walk so that every prerequisite is
// emitted before its dependent and each node is emitted at most once.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing ordering.
	CycleError struct {
		// Cycle is the path that closes the loop; the first and last element
		// are the same node (e.g. [a b a]).
		Cycle []string
	}

	// UnknownNodeError is returned when a walk starts from a node that is not
	// part of the graph.
	UnknownNodeError struct {
		Name string
	}

	// Graph is a directed graph with deterministic, insertion-ordered traversal.
	Graph struct {
		// prereqs maps each node to the nodes that must run before it, in the
		// order the edges were added.
		prereqs map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}

	visitState int
)

const (
	unvisited visitState = iota
	inProgress
	done
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node '%s'", e.Name)
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		prereqs: make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must run before "to".
// Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.prereqs[to] = append(g.prereqs[to], from)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	return g.nodeSet[name]
}

// Order returns an execution order for the given roots: a post-order walk in
// which each root's prerequisites (recursively) precede it and every node
// appears once, at its first completed visit. Roots are processed left to
// right and share the visited set, so a prerequisite common to several roots
// is emitted once, before all of them.
func (g *Graph) Order(roots ...string) ([]string, error) {
	state := make(map[string]visitState, len(g.nodes))
	var (
		order []string
		path  []string
	)

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			return &CycleError{Cycle: cycle}
		}

		state[name] = inProgress
		path = append(path, name)
		for _, pre := range g.prereqs[name] {
			if err := visit(pre); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, root := range roots {
		if !g.nodeSet[root] {
			return nil, &UnknownNodeError{Name: root}
		}
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// TopologicalSort orders every node of the graph, starting walks from nodes in
// insertion order. It returns a CycleError naming the first cycle found.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}
	return g.Order(g.nodes...)
}
