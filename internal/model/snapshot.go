package model

import "sort"

// Position holds the solver's per-component placement data.
type Position struct {
	// TopoRank is the component's index in the deterministic
	// topological order (0-based).
	TopoRank int `json:"topo_rank"`

	// Earliest is the length in edges of the longest predecessor chain.
	// Source components have Earliest 0. Drives default visual ordering.
	Earliest int `json:"earliest"`

	// OnCriticalPath reports whether the component lies on the
	// critical path.
	OnCriticalPath bool `json:"on_critical_path"`

	// Pinned reports whether a manual sequence index overrides the
	// computed presentation position.
	Pinned bool `json:"pinned"`
}

// ViolationKind categorizes an active soft-invariant violation.
type ViolationKind string

const (
	// ViolationPhaseOrder: a component's dependency is assigned to a
	// later-ranked phase than the component itself.
	ViolationPhaseOrder ViolationKind = "phase_order"
)

// Violation describes a soft-invariant conflict present in the graph.
// Violations never block mutations; they are surfaced so the caller can
// explain the conflict to the user.
type Violation struct {
	Kind            ViolationKind `json:"kind"`
	Component       ComponentID   `json:"component"`
	Dependency      ComponentID   `json:"dependency"`
	ComponentPhase  PhaseID       `json:"component_phase"`
	DependencyPhase PhaseID       `json:"dependency_phase"`
}

// Snapshot is a consistent point-in-time view of one project's graph and
// its computed sequencing. Snapshots are deep copies: mutating a snapshot
// never affects engine state.
type Snapshot struct {
	Project ProjectID `json:"project"`

	// Version is the graph version token of the mutation that produced
	// this state. Empty before any mutation.
	Version string `json:"version,omitempty"`

	// Seq is the logical clock position at snapshot time.
	Seq int64 `json:"seq"`

	// Components sorted by created-at key, Edges sorted by (From, To),
	// Phases sorted by (Rank, ID). Sorted so snapshot serialization is
	// deterministic.
	Components []Component `json:"components"`
	Edges      []Edge      `json:"edges"`
	Phases     []Phase     `json:"phases"`

	// Order is the deterministic topological order.
	Order []ComponentID `json:"order"`

	// CriticalPath is the longest weighted dependency chain, source to
	// sink. CriticalLength is its cumulative weight.
	CriticalPath   []ComponentID `json:"critical_path"`
	CriticalLength int64         `json:"critical_length"`

	// Positions maps each component to its solver placement.
	Positions map[ComponentID]Position `json:"positions"`

	// Violations lists every active phase-order conflict.
	Violations []Violation `json:"violations"`
}

// SortComponents orders components by created-at key, falling back to id
// ordinal. Used when assembling snapshots.
func SortComponents(cs []Component) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CreatedSeq != cs[j].CreatedSeq {
			return cs[i].CreatedSeq < cs[j].CreatedSeq
		}
		return cs[i].ID < cs[j].ID
	})
}

// SortEdges orders edges by (From, To).
func SortEdges(es []Edge) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].From != es[j].From {
			return es[i].From < es[j].From
		}
		return es[i].To < es[j].To
	})
}

// SortPhases orders phases by rank, falling back to id.
func SortPhases(ps []Phase) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Rank != ps[j].Rank {
			return ps[i].Rank < ps[j].Rank
		}
		return ps[i].ID < ps[j].ID
	})
}

// SortViolations orders violations by (Component, Dependency) so snapshot
// serialization is deterministic.
func SortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Component != vs[j].Component {
			return vs[i].Component < vs[j].Component
		}
		return vs[i].Dependency < vs[j].Dependency
	})
}
