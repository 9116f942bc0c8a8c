package solver

import (
	"github.com/nbartley/sequent/internal/graph"
	"github.com/nbartley/sequent/internal/model"
)

// Result is the solver's output for one project graph.
type Result struct {
	// Order is the deterministic topological order of all components.
	Order []model.ComponentID

	// Positions maps each component to its placement data.
	Positions map[model.ComponentID]model.Position

	// CriticalPath is the longest weighted dependency chain, listed
	// source to sink. Empty for an empty graph.
	CriticalPath []model.ComponentID

	// CriticalLength is the cumulative effective weight along
	// CriticalPath.
	CriticalLength int64
}

// Solve computes the topological order, per-component positions, and the
// critical path. The graph must be acyclic; the coordinator guarantees
// this by running the cycle guard before every edge commit. Solve never
// mutates the store.
func Solve(s *graph.Store) *Result {
	nodes := s.Nodes()

	order := topologicalOrder(s, nodes)

	res := &Result{
		Order:     order,
		Positions: make(map[model.ComponentID]model.Position, len(order)),
	}
	for rank, id := range order {
		res.Positions[id] = model.Position{TopoRank: rank}
	}

	computeEarliest(s, order, res.Positions)
	computeCriticalPath(s, order, res)
	return res
}

// topologicalOrder is Kahn's algorithm with a deterministic ready-set:
// among all components with no unresolved predecessor, the one with the
// smallest created-at key is chosen; ties (which require duplicate keys)
// fall back to id ordinal. Selection scans the ready slice linearly -
// project graphs are small enough that a heap would be complexity for
// nothing.
func topologicalOrder(s *graph.Store, nodes []model.Component) []model.ComponentID {
	indegree := make(map[model.ComponentID]int, len(nodes))
	byID := make(map[model.ComponentID]model.Component, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		deps, _ := s.Neighbors(n.ID, graph.Dependencies)
		indegree[n.ID] = len(deps)
	}

	var ready []model.ComponentID
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]model.ComponentID, 0, len(nodes))
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if less(byID[ready[i]], byID[ready[best]]) {
				best = i
			}
		}
		next := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, next)

		dependents, _ := s.Neighbors(next, graph.Dependents)
		for _, d := range dependents {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	return order
}

// less orders components by created-at key, then id ordinal.
func less(a, b model.Component) bool {
	if a.CreatedSeq != b.CreatedSeq {
		return a.CreatedSeq < b.CreatedSeq
	}
	return a.ID < b.ID
}

// computeEarliest fills in the earliest-position integer: the length in
// edges of the longest predecessor chain. Components with no dependencies
// sit at 0. Computed by DP over the topological order.
func computeEarliest(s *graph.Store, order []model.ComponentID, positions map[model.ComponentID]model.Position) {
	earliest := make(map[model.ComponentID]int, len(order))
	for _, id := range order {
		deps, _ := s.Neighbors(id, graph.Dependencies)
		e := 0
		for _, d := range deps {
			if earliest[d]+1 > e {
				e = earliest[d] + 1
			}
		}
		earliest[id] = e

		p := positions[id]
		p.Earliest = e
		positions[id] = p
	}
}
