package solver

import (
	"github.com/nbartley/sequent/internal/graph"
	"github.com/nbartley/sequent/internal/model"
)

// computeCriticalPath runs the longest-path DP over the topological
// order and reconstructs the maximal path.
//
// For each node: length(n) = weight(n) + max over predecessors of
// length(pred), defaulting to weight(n) for sources. The global maximum
// is the critical-path length. Tie-breaks keep the result stable:
//   - terminal selection: among nodes tying for maximum length, the one
//     with the smallest created-at key wins;
//   - path reconstruction: among predecessors tying for the maximal
//     extension, the one with the smallest created-at key wins.
func computeCriticalPath(s *graph.Store, order []model.ComponentID, res *Result) {
	if len(order) == 0 {
		return
	}

	length := make(map[model.ComponentID]int64, len(order))
	bestPred := make(map[model.ComponentID]model.ComponentID, len(order))

	for _, id := range order {
		node, _ := s.Node(id)
		w := node.EffectiveWeight()

		var best int64
		var bestFrom model.ComponentID
		hasPred := false

		deps, _ := s.Neighbors(id, graph.Dependencies)
		for _, d := range deps {
			dl := length[d]
			if !hasPred || dl > best || (dl == best && earlier(s, d, bestFrom)) {
				best = dl
				bestFrom = d
			}
			hasPred = true
		}

		if hasPred {
			length[id] = w + best
			bestPred[id] = bestFrom
		} else {
			length[id] = w
		}
	}

	// Terminal: global maximum, smallest created-at key on ties.
	var terminal model.ComponentID
	var maxLen int64 = -1
	for _, id := range order {
		l := length[id]
		if l > maxLen || (l == maxLen && earlier(s, id, terminal)) {
			maxLen = l
			terminal = id
		}
	}

	// Walk best predecessors back to a source, then reverse.
	var reversed []model.ComponentID
	for cur := terminal; ; {
		reversed = append(reversed, cur)
		pred, ok := bestPred[cur]
		if !ok {
			break
		}
		cur = pred
	}

	path := make([]model.ComponentID, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}

	res.CriticalPath = path
	res.CriticalLength = maxLen
	for _, id := range path {
		p := res.Positions[id]
		p.OnCriticalPath = true
		res.Positions[id] = p
	}
}

// earlier reports whether a precedes b by created-at key, id ordinal
// fallback. An empty b always loses.
func earlier(s *graph.Store, a, b model.ComponentID) bool {
	if b == "" {
		return true
	}
	na, _ := s.Node(a)
	nb, _ := s.Node(b)
	if na.CreatedSeq != nb.CreatedSeq {
		return na.CreatedSeq < nb.CreatedSeq
	}
	return na.ID < nb.ID
}
