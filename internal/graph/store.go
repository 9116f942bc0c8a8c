package graph

import (
	"sort"

	"github.com/nbartley/sequent/internal/model"
)

// Direction selects which neighbors of a component to enumerate.
type Direction int

const (
	// Dependencies enumerates components the subject depends on
	// (in-edges: they must be ready before the subject).
	Dependencies Direction = iota + 1

	// Dependents enumerates components that depend on the subject
	// (out-edges: the subject must be ready before them).
	Dependents
)

// Store holds one project's components and dependency edges.
//
// Layout: an arena of components keyed by id, plus out/in adjacency maps
// of id -> set-of-ids. Edge kinds live in the adjacency sets. Nodes hold
// no direct references to each other.
//
// Not safe for concurrent use; the coordinator serializes access.
type Store struct {
	nodes map[model.ComponentID]*model.Component
	out   map[model.ComponentID]map[model.ComponentID]model.EdgeKind
	in    map[model.ComponentID]map[model.ComponentID]model.EdgeKind
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[model.ComponentID]*model.Component),
		out:   make(map[model.ComponentID]map[model.ComponentID]model.EdgeKind),
		in:    make(map[model.ComponentID]map[model.ComponentID]model.EdgeKind),
	}
}

// AddNode registers a component. The component value is copied; callers
// cannot mutate stored state through the argument afterwards.
// Fails with DUPLICATE_NODE if the id is already registered.
func (s *Store) AddNode(c model.Component) error {
	if _, ok := s.nodes[c.ID]; ok {
		return NewDuplicateNode(c.ID)
	}
	node := c
	s.nodes[c.ID] = &node
	s.out[c.ID] = make(map[model.ComponentID]model.EdgeKind)
	s.in[c.ID] = make(map[model.ComponentID]model.EdgeKind)
	return nil
}

// RemoveNode removes a component and all incident edges atomically,
// returning the removed edges. Fails with UNKNOWN_NODE if absent.
func (s *Store) RemoveNode(id model.ComponentID) ([]model.Edge, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, NewUnknownNode(id)
	}

	var removed []model.Edge
	for to, kind := range s.out[id] {
		removed = append(removed, model.Edge{From: id, To: to, Kind: kind})
		delete(s.in[to], id)
	}
	for from, kind := range s.in[id] {
		removed = append(removed, model.Edge{From: from, To: id, Kind: kind})
		delete(s.out[from], id)
	}

	delete(s.nodes, id)
	delete(s.out, id)
	delete(s.in, id)

	model.SortEdges(removed)
	return removed, nil
}

// AddEdge inserts a dependency edge. Fails with UNKNOWN_NODE if either
// endpoint is missing, SELF_DEPENDENCY if from == to, DUPLICATE_EDGE if
// the ordered pair already exists.
//
// AddEdge does NOT check acyclicity; run FindCycle first. The coordinator
// is the only caller and always does.
func (s *Store) AddEdge(e model.Edge) error {
	if e.From == e.To {
		return NewSelfDependency(e.From)
	}
	if _, ok := s.nodes[e.From]; !ok {
		return NewUnknownNode(e.From)
	}
	if _, ok := s.nodes[e.To]; !ok {
		return NewUnknownNode(e.To)
	}
	if _, ok := s.out[e.From][e.To]; ok {
		return NewDuplicateEdge(e.From, e.To)
	}

	s.out[e.From][e.To] = e.Kind
	s.in[e.To][e.From] = e.Kind
	return nil
}

// RemoveEdge deletes the (from, to) edge. Fails with UNKNOWN_EDGE if the
// ordered pair does not exist.
func (s *Store) RemoveEdge(from, to model.ComponentID) error {
	if _, ok := s.out[from][to]; !ok {
		return NewUnknownEdge(from, to)
	}
	delete(s.out[from], to)
	delete(s.in[to], from)
	return nil
}

// Neighbors returns the direct dependencies or dependents of a component,
// sorted by id for deterministic iteration. Side-effect free.
// Fails with UNKNOWN_NODE if the component is absent.
func (s *Store) Neighbors(id model.ComponentID, dir Direction) ([]model.ComponentID, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, NewUnknownNode(id)
	}
	var adj map[model.ComponentID]model.EdgeKind
	switch dir {
	case Dependencies:
		adj = s.in[id]
	default:
		adj = s.out[id]
	}
	return sortedIDs(adj), nil
}

// Node returns a copy of the component and whether it exists.
func (s *Store) Node(id model.ComponentID) (model.Component, bool) {
	n, ok := s.nodes[id]
	if !ok {
		return model.Component{}, false
	}
	return *n, true
}

// HasNode reports whether the component is registered.
func (s *Store) HasNode(id model.ComponentID) bool {
	_, ok := s.nodes[id]
	return ok
}

// HasEdge reports whether the ordered (from, to) edge exists.
func (s *Store) HasEdge(from, to model.ComponentID) bool {
	_, ok := s.out[from][to]
	return ok
}

// Edge returns the ordered (from, to) edge with its kind.
func (s *Store) Edge(from, to model.ComponentID) (model.Edge, bool) {
	kind, ok := s.out[from][to]
	if !ok {
		return model.Edge{}, false
	}
	return model.Edge{From: from, To: to, Kind: kind}, true
}

// Nodes returns copies of all components sorted by created-at key.
func (s *Store) Nodes() []model.Component {
	out := make([]model.Component, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	model.SortComponents(out)
	return out
}

// Edges returns all edges sorted by (From, To).
func (s *Store) Edges() []model.Edge {
	var out []model.Edge
	for from, tos := range s.out {
		for to, kind := range tos {
			out = append(out, model.Edge{From: from, To: to, Kind: kind})
		}
	}
	model.SortEdges(out)
	return out
}

// NodeCount returns the number of registered components.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of dependency edges.
func (s *Store) EdgeCount() int {
	n := 0
	for _, tos := range s.out {
		n += len(tos)
	}
	return n
}

// SetManualIndex updates a component's manual sequence index. A nil index
// unpins the component. Fails with UNKNOWN_NODE if absent.
func (s *Store) SetManualIndex(id model.ComponentID, index *int) error {
	n, ok := s.nodes[id]
	if !ok {
		return NewUnknownNode(id)
	}
	if index == nil {
		n.ManualIndex = nil
		return nil
	}
	v := *index
	n.ManualIndex = &v
	return nil
}

// SetPhase updates a component's phase reference. The empty PhaseID
// unassigns. Fails with UNKNOWN_NODE if absent.
func (s *Store) SetPhase(id model.ComponentID, phase model.PhaseID) error {
	n, ok := s.nodes[id]
	if !ok {
		return NewUnknownNode(id)
	}
	n.Phase = phase
	return nil
}

// SetWeight updates a component's effort weight. Fails with UNKNOWN_NODE
// if absent.
func (s *Store) SetWeight(id model.ComponentID, weight int64) error {
	n, ok := s.nodes[id]
	if !ok {
		return NewUnknownNode(id)
	}
	n.Weight = weight
	return nil
}

// TransitivePredecessors returns every component reachable from id by
// walking dependency (in) edges, excluding id itself. Sorted by id.
// Fails with UNKNOWN_NODE if the component is absent.
func (s *Store) TransitivePredecessors(id model.ComponentID) ([]model.ComponentID, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, NewUnknownNode(id)
	}

	seen := map[model.ComponentID]bool{id: true}
	queue := []model.ComponentID{id}
	var preds []model.ComponentID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for from := range s.in[cur] {
			if seen[from] {
				continue
			}
			seen[from] = true
			preds = append(preds, from)
			queue = append(queue, from)
		}
	}

	sort.Slice(preds, func(i, j int) bool { return preds[i] < preds[j] })
	return preds, nil
}

func sortedIDs(set map[model.ComponentID]model.EdgeKind) []model.ComponentID {
	ids := make([]model.ComponentID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
