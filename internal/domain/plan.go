package domain

import "fmt"

// Edge is a directed precedence constraint: From must complete before To.
type Edge struct {
	From, To TaskID
}

// Plan is an ordered sequence of task indices plus a precedence relation
// over them (SPEC_FULL.md §3 "Plan"). The transitive closure is
// materialized at construction so downstream code (mutex enumeration,
// scheduling constraints) only ever walks a DAG's direct edges — it never
// needs to compute reachability itself. Precedence closure is acyclic by
// precondition (§9 "Cycles"); NewPlan rejects inputs that imply a cycle.
type Plan struct {
	TaskIndices []TaskID
	direct      []Edge
	closure     map[TaskID]map[TaskID]bool // closure[i][j] == true iff i -*-> j
}

// NewPlan builds a Plan and materializes the transitive closure of edges.
// Returns an error if the edges imply a cycle.
func NewPlan(taskIndices []TaskID, edges []Edge) (*Plan, error) {
	adj := make(map[TaskID][]TaskID, len(taskIndices))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	order, err := topoSort(taskIndices, adj)
	if err != nil {
		return nil, err
	}

	// Process in reverse topological order so a node's closure is the
	// union of its direct successors' own (already-computed) closures.
	closure := make(map[TaskID]map[TaskID]bool, len(taskIndices))
	for i := len(order) - 1; i >= 0; i-- {
		t := order[i]
		reached := make(map[TaskID]bool)
		for _, next := range adj[t] {
			reached[next] = true
			for d := range closure[next] {
				reached[d] = true
			}
		}
		closure[t] = reached
	}

	return &Plan{
		TaskIndices: append([]TaskID(nil), taskIndices...),
		direct:      append([]Edge(nil), edges...),
		closure:     closure,
	}, nil
}

// topoSort returns task indices in topological order, erroring if the
// induced graph has a cycle.
func topoSort(taskIndices []TaskID, adj map[TaskID][]TaskID) ([]TaskID, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[TaskID]int, len(taskIndices))
	order := make([]TaskID, 0, len(taskIndices))

	var visit func(TaskID) error
	visit = func(t TaskID) error {
		color[t] = gray
		for _, next := range adj[t] {
			switch color[next] {
			case gray:
				return fmt.Errorf("domain: precedence graph contains a cycle through task %d", next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[t] = black
		order = append(order, t)
		return nil
	}

	for _, t := range taskIndices {
		if color[t] == white {
			if err := visit(t); err != nil {
				return nil, err
			}
		}
	}

	// order is currently a postorder (reverse topological); reverse it.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// DirectEdges returns the plan's direct (non-transitive) precedence edges.
func (p *Plan) DirectEdges() []Edge {
	return p.direct
}

// Precedes reports whether i must complete before j, directly or
// transitively.
func (p *Plan) Precedes(i, j TaskID) bool {
	return p.closure[i][j]
}

// Ordered reports whether i and j are related by precedence in either
// direction.
func (p *Plan) Ordered(i, j TaskID) bool {
	return p.Precedes(i, j) || p.Precedes(j, i)
}
