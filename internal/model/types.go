package model

// ProjectID identifies a project. Each project owns an independent graph.
type ProjectID string

// ComponentID identifies a component within a project.
// IDs are opaque to the engine; uniqueness is enforced by the graph store.
type ComponentID string

// PhaseID identifies a delivery phase. The empty PhaseID means "unassigned".
type PhaseID string

// ComponentKind categorizes a planned Power-Platform artifact.
type ComponentKind string

const (
	KindTable     ComponentKind = "table"
	KindList      ComponentKind = "list"
	KindScreen    ComponentKind = "screen"
	KindFlow      ComponentKind = "flow"
	KindConnector ComponentKind = "connector"
	KindOther     ComponentKind = "other"
)

// ValidComponentKinds defines the allowed component kinds.
var ValidComponentKinds = map[ComponentKind]bool{
	KindTable:     true,
	KindList:      true,
	KindScreen:    true,
	KindFlow:      true,
	KindConnector: true,
	KindOther:     true,
}

// Valid reports whether the kind is one of the defined component kinds.
func (k ComponentKind) Valid() bool {
	return ValidComponentKinds[k]
}

// EdgeKind annotates why a dependency exists. It is informational only
// and never affects ordering semantics.
type EdgeKind string

const (
	EdgeData       EdgeKind = "data"
	EdgeTrigger    EdgeKind = "trigger"
	EdgeNavigation EdgeKind = "navigation"
	EdgeOther      EdgeKind = "other"
)

// ValidEdgeKinds defines the allowed edge kinds.
var ValidEdgeKinds = map[EdgeKind]bool{
	EdgeData:       true,
	EdgeTrigger:    true,
	EdgeNavigation: true,
	EdgeOther:      true,
}

// Valid reports whether the kind is one of the defined edge kinds.
func (k EdgeKind) Valid() bool {
	return ValidEdgeKinds[k]
}

// Component is a node in the dependency graph.
//
// CreatedSeq is the created-at ordering key: a monotonic logical sequence
// number stamped by the coordinator's clock when the component is
// registered. It is the mandatory tie-break for all deterministic
// ordering decisions (topological order, critical-path selection).
// NEVER use wall-clock timestamps for ordering.
//
// ManualIndex, when non-nil, pins the component to a user-asserted
// presentation position. Pinned indices affect presentation only, never
// dependency correctness.
//
// Weight is the effort weight used for critical-path length. Zero or
// negative means "unset"; EffectiveWeight resolves the default of 1.
type Component struct {
	ID          ComponentID   `json:"id"`
	Kind        ComponentKind `json:"kind"`
	Name        string        `json:"name"`
	Phase       PhaseID       `json:"phase,omitempty"`
	ManualIndex *int          `json:"manual_index,omitempty"`
	CreatedSeq  int64         `json:"created_seq"`
	Weight      int64         `json:"weight,omitempty"`
}

// EffectiveWeight returns the weight used for critical-path computation.
// Unset (zero or negative) weights default to 1 so unit-count critical
// paths work without any effort estimation.
func (c Component) EffectiveWeight() int64 {
	if c.Weight <= 0 {
		return 1
	}
	return c.Weight
}

// Pinned reports whether the component carries a manual sequence index.
func (c Component) Pinned() bool {
	return c.ManualIndex != nil
}

// Edge is a directed dependency: To cannot be considered ready until
// From is. At most one edge exists per ordered (From, To) pair and
// self-edges are forbidden (enforced by the graph store).
type Edge struct {
	From ComponentID `json:"from"`
	To   ComponentID `json:"to"`
	Kind EdgeKind    `json:"kind"`
}

// Phase is a ranked delivery milestone. Rank defines phase order;
// lower ranks deliver earlier.
type Phase struct {
	ID   PhaseID `json:"id"`
	Name string  `json:"name"`
	Rank int     `json:"rank"`
}

// ComponentSpec describes a component to register, before the engine has
// stamped its created-at key. Produced by the plan compiler and by the
// component-design lifecycle feed.
type ComponentSpec struct {
	ID     ComponentID   `json:"id"`
	Kind   ComponentKind `json:"kind"`
	Name   string        `json:"name"`
	Phase  PhaseID       `json:"phase,omitempty"`
	Weight int64         `json:"weight,omitempty"`
}

// DependencySpec describes a dependency edge in a plan definition.
type DependencySpec struct {
	From ComponentID `json:"from"`
	To   ComponentID `json:"to"`
	Kind EdgeKind    `json:"kind,omitempty"`
}

// PlanDef is a compiled plan definition: the declarative description of a
// project's components, dependencies, and phases as authored in plan
// files. Component declaration order is preserved - it determines the
// created-at ordering keys when the plan is loaded into a coordinator.
type PlanDef struct {
	Project      ProjectID        `json:"project"`
	Components   []ComponentSpec  `json:"components"`
	Dependencies []DependencySpec `json:"dependencies"`
	Phases       []Phase          `json:"phases"`
}
