package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nbartley/sequent/internal/graph"
	"github.com/nbartley/sequent/internal/model"
	"github.com/nbartley/sequent/internal/solver"
	"github.com/nbartley/sequent/internal/store"
)

// Coordinator is the sole mutation entry point for one project's
// dependency graph. It serializes mutations, enforces invariants
// end-to-end, reconciles manual overrides against computed order, and
// notifies subscribers.
//
// Thread-safety model:
//   - mutation methods: serialized by the write lock (single writer)
//   - Snapshot(): read lock, may run concurrently with other snapshots
//   - Subscribe(): safe from any goroutine
type Coordinator struct {
	project  model.ProjectID
	logger   *slog.Logger
	versions VersionGenerator
	events   *subscriptions

	mu      sync.RWMutex
	clock   *Clock
	graph   *graph.Store
	phases  map[model.PhaseID]model.Phase
	result  *solver.Result
	version string

	// journal, when attached, records every accepted mutation before
	// GraphChanged is emitted. nil means in-memory only.
	journal *store.Store

	// replaying suppresses journaling and event emission while a
	// journal is being re-applied.
	replaying bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithVersionGenerator overrides the graph version token source.
// Default: UUIDv7Generator.
func WithVersionGenerator(g VersionGenerator) Option {
	return func(c *Coordinator) { c.versions = g }
}

// WithJournal attaches a durable mutation journal.
func WithJournal(s *store.Store) Option {
	return func(c *Coordinator) { c.journal = s }
}

// WithClock overrides the logical clock. Used by replay to resume from
// the journal's last sequence number.
func WithClock(clk *Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// New creates a Coordinator for a project with an empty graph.
func New(project model.ProjectID, opts ...Option) *Coordinator {
	c := &Coordinator{
		project:  project,
		logger:   slog.Default(),
		versions: UUIDv7Generator{},
		events:   newSubscriptions(),
		clock:    NewClock(),
		graph:    graph.NewStore(),
		phases:   make(map[model.PhaseID]model.Phase),
		result:   solver.Solve(graph.NewStore()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project returns the project this coordinator owns.
func (c *Coordinator) Project() model.ProjectID { return c.project }

// Subscribe registers for GraphChanged notifications. The returned
// cancel function is idempotent. Delivery is coalescing latest-wins.
func (c *Coordinator) Subscribe() (<-chan GraphChanged, func()) {
	return c.events.subscribe()
}

// =============================================================================
// Component lifecycle (fed by the component-design surface)
// =============================================================================

// CreateComponent registers a component. The mutation's clock tick
// becomes the component's created-at ordering key.
// Fails with DUPLICATE_NODE if the id is taken.
func (c *Coordinator) CreateComponent(ctx context.Context, spec model.ComponentSpec) (*MutationResult, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("create component: empty id")
	}
	if !spec.Kind.Valid() {
		return nil, fmt.Errorf("create component %s: invalid kind %q", spec.ID, spec.Kind)
	}
	if spec.Phase != "" {
		if _, ok := c.phaseByID(spec.Phase); !ok {
			return nil, fmt.Errorf("create component %s: unknown phase %q", spec.ID, spec.Phase)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph.HasNode(spec.ID) {
		return nil, fmt.Errorf("create component: %w", graph.NewDuplicateNode(spec.ID))
	}

	seq := c.clock.Next()
	node := model.Component{
		ID:         spec.ID,
		Kind:       spec.Kind,
		Name:       spec.Name,
		Phase:      spec.Phase,
		CreatedSeq: seq,
		Weight:     spec.Weight,
	}
	if err := c.graph.AddNode(node); err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}

	return c.commit(ctx, seq, mutComponentCreated, map[string]any{
		"op":     mutComponentCreated,
		"id":     string(spec.ID),
		"kind":   string(spec.Kind),
		"name":   spec.Name,
		"phase":  string(spec.Phase),
		"weight": spec.Weight,
	}, nil, func() { _, _ = c.graph.RemoveNode(spec.ID) })
}

// DeleteComponent removes a component and all incident edges atomically.
// Fails with UNKNOWN_NODE if absent.
func (c *Coordinator) DeleteComponent(ctx context.Context, id model.ComponentID) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, _ := c.graph.Node(id)
	removed, err := c.graph.RemoveNode(id)
	if err != nil {
		return nil, fmt.Errorf("delete component: %w", err)
	}
	if len(removed) > 0 {
		c.logger.Debug("removed incident edges with component",
			"project", c.project, "component", id, "edges", len(removed))
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutComponentDeleted, map[string]any{
		"op": mutComponentDeleted,
		"id": string(id),
	}, nil, func() {
		_ = c.graph.AddNode(node)
		for _, e := range removed {
			_ = c.graph.AddEdge(e)
		}
	})
}

// =============================================================================
// Dependency mutations
// =============================================================================

// AssignDependency validates and commits the edge from -> to.
//
// On cycle-guard rejection it returns CYCLE_DETECTED carrying the
// complete offending cycle and makes no change. On success, any pinned
// manual index the new edge made inconsistent is detected now (not
// lazily), the affected components are unpinned, and the result carries
// a MANUAL_ORDER_INVALIDATED warning naming them.
func (c *Coordinator) AssignDependency(ctx context.Context, from, to model.ComponentID, kind model.EdgeKind) (*MutationResult, error) {
	if kind == "" {
		kind = model.EdgeOther
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("assign dependency: invalid edge kind %q", kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Structural validation first; the guard assumes valid endpoints.
	if from == to {
		return nil, fmt.Errorf("assign dependency: %w", graph.NewSelfDependency(from))
	}
	if !c.graph.HasNode(from) {
		return nil, fmt.Errorf("assign dependency: %w", graph.NewUnknownNode(from))
	}
	if !c.graph.HasNode(to) {
		return nil, fmt.Errorf("assign dependency: %w", graph.NewUnknownNode(to))
	}
	if c.graph.HasEdge(from, to) {
		return nil, fmt.Errorf("assign dependency: %w", graph.NewDuplicateEdge(from, to))
	}

	if cycle := graph.FindCycle(c.graph, from, to); cycle != nil {
		return nil, fmt.Errorf("assign dependency: %w", graph.NewCycleDetected(from, to, cycle))
	}

	if err := c.graph.AddEdge(model.Edge{From: from, To: to, Kind: kind}); err != nil {
		return nil, fmt.Errorf("assign dependency: %w", err)
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutDependencyAssigned, map[string]any{
		"op":   mutDependencyAssigned,
		"from": string(from),
		"to":   string(to),
		"kind": string(kind),
	}, nil, func() { _ = c.graph.RemoveEdge(from, to) })
}

// RemoveDependency removes the edge from -> to. Removing an edge never
// invalidates manual indices. Fails with UNKNOWN_EDGE if absent.
func (c *Coordinator) RemoveDependency(ctx context.Context, from, to model.ComponentID) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	edge, _ := c.graph.Edge(from, to)
	if err := c.graph.RemoveEdge(from, to); err != nil {
		return nil, fmt.Errorf("remove dependency: %w", err)
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutDependencyRemoved, map[string]any{
		"op":   mutDependencyRemoved,
		"from": string(from),
		"to":   string(to),
	}, nil, func() { _ = c.graph.AddEdge(edge) })
}

// =============================================================================
// Manual order
// =============================================================================

// SetManualOrder pins a component to a user-asserted presentation index.
//
// The index must place the component strictly after everything it
// transitively depends on: each predecessor's effective index (its
// manual index when pinned, its topological rank otherwise) must be
// below the requested index. On violation the call fails with
// ORDER_VIOLATION naming the conflicting predecessor and makes no
// change. Pinning never alters the computed topological order used for
// unpinned components - manual indices affect presentation only.
func (c *Coordinator) SetManualOrder(ctx context.Context, id model.ComponentID, index int) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.graph.HasNode(id) {
		return nil, fmt.Errorf("set manual order: %w", graph.NewUnknownNode(id))
	}

	preds, err := c.graph.TransitivePredecessors(id)
	if err != nil {
		return nil, fmt.Errorf("set manual order: %w", err)
	}
	if conflict, conflictIdx, ok := c.worstPredecessor(preds, index); ok {
		return nil, fmt.Errorf("set manual order: %w",
			graph.NewOrderViolation(id, conflict, index, conflictIdx))
	}

	node, _ := c.graph.Node(id)
	prev := node.ManualIndex
	if err := c.graph.SetManualIndex(id, &index); err != nil {
		return nil, fmt.Errorf("set manual order: %w", err)
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutManualOrderSet, map[string]any{
		"op":    mutManualOrderSet,
		"id":    string(id),
		"index": index,
	}, nil, func() { _ = c.graph.SetManualIndex(id, prev) })
}

// ClearManualOrder unpins a component, reverting it to computed order.
// Clearing an unpinned component is a no-op mutation (still versioned).
func (c *Coordinator) ClearManualOrder(ctx context.Context, id model.ComponentID) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, _ := c.graph.Node(id)
	prev := node.ManualIndex
	if err := c.graph.SetManualIndex(id, nil); err != nil {
		return nil, fmt.Errorf("clear manual order: %w", err)
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutManualOrderCleared, map[string]any{
		"op": mutManualOrderCleared,
		"id": string(id),
	}, nil, func() { _ = c.graph.SetManualIndex(id, prev) })
}

// worstPredecessor returns the predecessor whose effective index most
// crowds the requested one: any predecessor at or beyond the index
// conflicts, and the one furthest out is reported. ok is false when no
// predecessor conflicts.
func (c *Coordinator) worstPredecessor(preds []model.ComponentID, index int) (model.ComponentID, int, bool) {
	var conflict model.ComponentID
	conflictIdx := 0
	found := false
	for _, p := range preds {
		node, ok := c.graph.Node(p)
		if !ok {
			continue
		}
		eff := c.effectiveIndex(node)
		if eff >= index && (!found || eff > conflictIdx) {
			conflict = p
			conflictIdx = eff
			found = true
		}
	}
	return conflict, conflictIdx, found
}

// effectiveIndex is the component's current presentation position: the
// manual index when pinned, the topological rank otherwise.
func (c *Coordinator) effectiveIndex(node model.Component) int {
	if node.ManualIndex != nil {
		return *node.ManualIndex
	}
	return c.result.Positions[node.ID].TopoRank
}

// =============================================================================
// Phases (definitions fed by the planning surface)
// =============================================================================

// SetPhases replaces the project's phase definitions. Components keep
// their phase references; references to removed phases are ignored by
// violation computation until the planning surface reconciles them.
func (c *Coordinator) SetPhases(ctx context.Context, phases []model.Phase) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.phases
	c.phases = make(map[model.PhaseID]model.Phase, len(phases))
	phaseList := make([]any, 0, len(phases))
	for _, p := range phases {
		c.phases[p.ID] = p
		phaseList = append(phaseList, map[string]any{
			"id":   string(p.ID),
			"name": p.Name,
			"rank": p.Rank,
		})
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutPhasesSet, map[string]any{
		"op":     mutPhasesSet,
		"phases": phaseList,
	}, nil, func() { c.phases = prev })
}

// AssignPhase records a component's phase reference (empty phase id
// unassigns). If the resulting phase ranks contradict dependency order,
// the assignment still succeeds and the result carries a
// PHASE_ORDER_WARNING per conflicting edge - phase planning is advisory
// relative to the hard dependency graph.
func (c *Coordinator) AssignPhase(ctx context.Context, id model.ComponentID, phase model.PhaseID) (*MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if phase != "" {
		if _, ok := c.phases[phase]; !ok {
			return nil, fmt.Errorf("assign phase: unknown phase %q", phase)
		}
	}
	node, _ := c.graph.Node(id)
	prev := node.Phase
	if err := c.graph.SetPhase(id, phase); err != nil {
		return nil, fmt.Errorf("assign phase: %w", err)
	}

	var warnings []Warning
	for _, v := range c.phaseViolations() {
		if v.Component == id || v.Dependency == id {
			warnings = append(warnings, newPhaseOrderWarning(v))
		}
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutPhaseAssigned, map[string]any{
		"op":    mutPhaseAssigned,
		"id":    string(id),
		"phase": string(phase),
	}, warnings, func() { _ = c.graph.SetPhase(id, prev) })
}

// SetWeight updates a component's effort weight; zero resets to the
// default of 1. Triggers recomputation like any other accepted mutation.
func (c *Coordinator) SetWeight(ctx context.Context, id model.ComponentID, weight int64) (*MutationResult, error) {
	if weight < 0 {
		return nil, fmt.Errorf("set weight: weight must be non-negative, got %d", weight)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node, _ := c.graph.Node(id)
	prev := node.Weight
	if err := c.graph.SetWeight(id, weight); err != nil {
		return nil, fmt.Errorf("set weight: %w", err)
	}

	seq := c.clock.Next()
	return c.commit(ctx, seq, mutWeightSet, map[string]any{
		"op":     mutWeightSet,
		"id":     string(id),
		"weight": weight,
	}, nil, func() { _ = c.graph.SetWeight(id, prev) })
}

// =============================================================================
// Plan hydration
// =============================================================================

// ApplyPlan loads a compiled plan definition into an empty coordinator:
// phases first, then components in declaration order (which fixes their
// created-at keys), then dependencies. Fails fast on the first rejected
// mutation.
func (c *Coordinator) ApplyPlan(ctx context.Context, plan *model.PlanDef) error {
	if _, err := c.SetPhases(ctx, plan.Phases); err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	for _, spec := range plan.Components {
		if _, err := c.CreateComponent(ctx, spec); err != nil {
			return fmt.Errorf("apply plan: %w", err)
		}
	}
	for _, dep := range plan.Dependencies {
		if _, err := c.AssignDependency(ctx, dep.From, dep.To, dep.Kind); err != nil {
			return fmt.Errorf("apply plan: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot returns a consistent point-in-time view of the project:
// nodes, edges, phase assignments, computed order, critical path, and
// active violations. Read-only and side-effect free; deep-copied so the
// caller can hold it indefinitely.
func (c *Coordinator) Snapshot() *model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() *model.Snapshot {
	phases := make([]model.Phase, 0, len(c.phases))
	for _, p := range c.phases {
		phases = append(phases, p)
	}
	model.SortPhases(phases)

	positions := make(map[model.ComponentID]model.Position, len(c.result.Positions))
	for id, pos := range c.result.Positions {
		if node, ok := c.graph.Node(id); ok {
			pos.Pinned = node.Pinned()
		}
		positions[id] = pos
	}

	violations := c.phaseViolations()

	return &model.Snapshot{
		Project:        c.project,
		Version:        c.version,
		Seq:            c.clock.Current(),
		Components:     c.graph.Nodes(),
		Edges:          c.graph.Edges(),
		Phases:         phases,
		Order:          append([]model.ComponentID(nil), c.result.Order...),
		CriticalPath:   append([]model.ComponentID(nil), c.result.CriticalPath...),
		CriticalLength: c.result.CriticalLength,
		Positions:      positions,
		Violations:     violations,
	}
}

// phaseViolations scans every edge for phase-rank contradictions: a
// dependency assigned to a later-ranked phase than its dependent.
// Edges whose endpoints reference unknown or unassigned phases are
// skipped. Called with at least a read lock held.
func (c *Coordinator) phaseViolations() []model.Violation {
	violations := []model.Violation{}
	for _, e := range c.graph.Edges() {
		fromNode, _ := c.graph.Node(e.From)
		toNode, _ := c.graph.Node(e.To)
		fromPhase, okFrom := c.phases[fromNode.Phase]
		toPhase, okTo := c.phases[toNode.Phase]
		if !okFrom || !okTo {
			continue
		}
		if fromPhase.Rank > toPhase.Rank {
			violations = append(violations, model.Violation{
				Kind:            model.ViolationPhaseOrder,
				Component:       e.To,
				Dependency:      e.From,
				ComponentPhase:  toNode.Phase,
				DependencyPhase: fromNode.Phase,
			})
		}
	}
	model.SortViolations(violations)
	return violations
}

func (c *Coordinator) phaseByID(id model.PhaseID) (model.Phase, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.phases[id]
	return p, ok
}

// =============================================================================
// Commit pipeline
// =============================================================================

// commit finishes an accepted mutation: journal, recompute, reconcile
// pins, emit. Called with the write lock held, after the graph mutation
// has been applied and the clock ticked.
//
// The journal write is the durability barrier. When it fails, undo
// reverts the graph change and the consumed seq is returned to the
// clock, so in-memory state never runs ahead of the journal and
// journaled seqs stay contiguous. The mutation is not acknowledged
// until recomputation finishes; there is no intermediate published
// state.
func (c *Coordinator) commit(ctx context.Context, seq int64, kind string, payload map[string]any, warnings []Warning, undo func()) (*MutationResult, error) {
	version := c.versions.Generate()

	if c.journal != nil && !c.replaying {
		body, err := model.MarshalCanonical(payload)
		if err != nil {
			c.rollback(seq, undo)
			return nil, fmt.Errorf("journal %s: %w", kind, err)
		}
		rec := store.MutationRecord{
			Project: c.project,
			Seq:     seq,
			Kind:    kind,
			Payload: body,
			Version: version,
		}
		if err := c.journal.WriteMutation(ctx, rec); err != nil {
			c.rollback(seq, undo)
			return nil, fmt.Errorf("journal %s: %w", kind, err)
		}
	}

	c.version = version
	c.result = solver.Solve(c.graph)

	// Detect pins the mutation made inconsistent; unpinning reverts the
	// affected components to computed order. Presentation-only, so no
	// re-solve is needed. Edge removal is exempt: removing a dependency
	// never invalidates manual indices.
	if kind != mutDependencyRemoved {
		if invalidated := c.reconcilePins(); len(invalidated) > 0 {
			warnings = append(warnings, newManualOrderInvalidatedWarning(invalidated))
		}
	}

	res := &MutationResult{Seq: seq, Version: c.version, Warnings: warnings}

	if !c.replaying {
		var invalidated []model.ComponentID
		for _, w := range warnings {
			if w.Code == WarnManualOrderInvalidated {
				invalidated = w.Components
			}
		}
		c.events.publish(GraphChanged{
			Project:      c.project,
			Seq:          seq,
			Version:      c.version,
			Order:        append([]model.ComponentID(nil), c.result.Order...),
			CriticalPath: append([]model.ComponentID(nil), c.result.CriticalPath...),
			Violations:   c.phaseViolations(),
			Invalidated:  invalidated,
		})
	}

	c.logger.Debug("mutation committed",
		"project", c.project, "kind", kind, "seq", seq, "version", c.version)

	return res, nil
}

// rollback undoes a mutation whose journal write failed. Runs with the
// write lock held, so no reader or subscriber ever observes the
// reverted state.
func (c *Coordinator) rollback(seq int64, undo func()) {
	if undo != nil {
		undo()
	}
	c.clock.rewind(seq - 1)
}

// reconcilePins re-validates every pinned manual index against the
// freshly computed order and unpins the ones that became inconsistent.
// Returns the unpinned component ids sorted for determinism.
func (c *Coordinator) reconcilePins() []model.ComponentID {
	var invalidated []model.ComponentID
	for _, node := range c.graph.Nodes() {
		if node.ManualIndex == nil {
			continue
		}
		preds, err := c.graph.TransitivePredecessors(node.ID)
		if err != nil {
			continue
		}
		if _, _, conflict := c.worstPredecessor(preds, *node.ManualIndex); conflict {
			invalidated = append(invalidated, node.ID)
		}
	}
	for _, id := range invalidated {
		// Cannot fail: the node was just enumerated.
		_ = c.graph.SetManualIndex(id, nil)
	}
	sort.Slice(invalidated, func(i, j int) bool { return invalidated[i] < invalidated[j] })
	return invalidated
}
