package graph

import "github.com/nbartley/sequent/internal/model"

// FindCycle answers, without mutating state, whether inserting the edge
// from -> to would close a cycle.
//
// The check is a breadth-first reachability walk: if `to` can already
// reach `from` via existing edges, the proposed edge closes a loop. The
// walk visits only the subgraph reachable from `to`, not the whole
// graph, so interactive edits stay responsive as projects grow.
//
// On detection the returned slice is the complete offending cycle,
// starting at `to`, walking the existing path to `from`, then closing
// over the proposed edge back to `to`:
//
//	[to, ..., from, to]
//
// Neighbor expansion is in sorted id order so the reported cycle is
// deterministic. Returns nil when the edge is safe.
func FindCycle(s *Store, from, to model.ComponentID) []model.ComponentID {
	if from == to {
		return []model.ComponentID{from, from}
	}
	if !s.HasNode(from) || !s.HasNode(to) {
		return nil
	}

	parent := map[model.ComponentID]model.ComponentID{to: to}
	queue := []model.ComponentID{to}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range sortedIDs(s.out[cur]) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == from {
				return reconstructCycle(parent, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// reconstructCycle walks the parent links back from `from` to `to`, then
// reverses and appends `to` to represent the proposed closing edge.
func reconstructCycle(parent map[model.ComponentID]model.ComponentID, from, to model.ComponentID) []model.ComponentID {
	var reversed []model.ComponentID
	for cur := from; ; cur = parent[cur] {
		reversed = append(reversed, cur)
		if cur == to {
			break
		}
	}

	cycle := make([]model.ComponentID, 0, len(reversed)+1)
	for i := len(reversed) - 1; i >= 0; i-- {
		cycle = append(cycle, reversed[i])
	}
	return append(cycle, to)
}

// HasPath reports whether target is reachable from start via dependency
// out-edges. Used by tests as an independent acyclicity check.
func HasPath(s *Store, start, target model.ComponentID) bool {
	if start == target {
		return true
	}
	seen := map[model.ComponentID]bool{start: true}
	queue := []model.ComponentID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range s.out[cur] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
