// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestOrder_SingleNode(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("A")
	order, err := g.Order("A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A"}) {
		t.Errorf("expected [A], got %v", order)
	}
}

func TestOrder_LinearChain(t *testing.T) {
	t.Parallel()
	g := New()
	// A -> B -> C (A must run first, then B, then C)
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")

	order, err := g.Order("C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "B", "C"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestOrder_OnlyReachableNodes(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("X", "Y")

	order, err := g.Order("B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", order)
	}
}

func TestOrder_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	// A -> B, A -> C, B -> D, C -> D
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("B", "D")
	g.AddEdge("C", "D")

	order, err := g.Order("D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"A", "B", "C", "D"}
	if !slices.Equal(order, expected) {
		t.Errorf("expected %v, got %v", expected, order)
	}
}

func TestOrder_SharedPrerequisiteAcrossRoots(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("Z", "X")
	g.AddEdge("Z", "Y")

	order, err := g.Order("X", "Y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"Z", "X", "Y"}) {
		t.Errorf("expected [Z X Y], got %v", order)
	}
}

func TestOrder_PrerequisiteOrderFollowsEdgeOrder(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("second", "top")
	g.AddEdge("first", "top")

	order, err := g.Order("top")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"second", "first", "top"}) {
		t.Errorf("expected edge order to be kept, got %v", order)
	}
}

func TestOrder_SimpleCycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "A")

	_, err := g.Order("A")
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "B", "A"}) {
		t.Errorf("expected cycle [A B A], got %v", cycleErr.Cycle)
	}
}

func TestOrder_SelfLoop(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "A")

	_, err := g.Order("A")
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if !slices.Equal(cycleErr.Cycle, []string{"A", "A"}) {
		t.Errorf("expected cycle [A A], got %v", cycleErr.Cycle)
	}
}

func TestTopologicalSort_CycleBehindAcyclicPrefix(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("ok")
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddEdge("C", "A")

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Cycle) != 4 || cycleErr.Cycle[0] != cycleErr.Cycle[3] {
		t.Errorf("expected closed 3-node cycle, got %v", cycleErr.Cycle)
	}
}

func TestOrder_UnknownRoot(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("A")

	_, err := g.Order("missing")
	var unknown *UnknownNodeError
	if !errors.As(err, &unknown) || unknown.Name != "missing" {
		t.Fatalf("expected *UnknownNodeError for 'missing', got %v", err)
	}
}

func TestOrder_DuplicateEdges(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("A", "B") // duplicate

	order, err := g.Order("B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A, B], got %v", order)
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"A", "B", "A"}}
	expected := "dependency cycle detected: A -> B -> A"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
