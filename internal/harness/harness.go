// Package harness runs declarative sequencing scenarios against a real
// coordinator.
//
// Scenarios are YAML files describing an initial plan, a series of
// mutations with expected rejection codes or warnings, and assertions on
// the final snapshot. Every step runs through the engine's full
// validation path; nothing is stubbed.
//
// Determinism: each run builds a fresh coordinator with sequential
// version tokens and mirrors the engine's logical clock with a
// testutil.DeterministicClock. A step that ticks the engine clock
// without ticking the mirror (or vice versa) fails the scenario, which
// pins the invariant that rejected mutations consume no sequence
// numbers. The final snapshot is therefore byte-stable across runs and
// suitable for golden comparison.
package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/graph"
	"github.com/nbartley/sequent/internal/model"
	"github.com/nbartley/sequent/internal/testutil"
)

// Harness drives one scenario execution.
type Harness struct {
	coord *engine.Coordinator
	clock *testutil.DeterministicClock
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory coordinator for
// isolation. Execution flow:
//  1. Apply the inline plan (if any)
//  2. Execute steps, checking expected rejections and warnings
//  3. Verify the mirrored clock agrees with the engine's seq
//  4. Evaluate assertions against the final snapshot
func Run(scenario *Scenario) (*Result, error) {
	project := scenario.Project
	if project == "" {
		project = "scenario"
	}

	h := &Harness{
		coord: engine.New(model.ProjectID(project),
			engine.WithLogger(testutil.QuietLogger()),
			engine.WithVersionGenerator(&engine.SequentialVersionGenerator{})),
		clock: testutil.NewDeterministicClock(),
	}

	ctx := context.Background()
	result := NewResult()

	if scenario.Plan != nil {
		plan := buildPlan(model.ProjectID(project), scenario.Plan)
		if err := h.coord.ApplyPlan(ctx, plan); err != nil {
			return nil, fmt.Errorf("apply scenario plan: %w", err)
		}
		// ApplyPlan commits one phase-set mutation plus one per
		// component and edge.
		h.clock.Advance(int64(1 + len(plan.Components) + len(plan.Dependencies)))
	}

	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	result.Snapshot = h.coord.Snapshot()

	if result.Snapshot.Seq != h.clock.Current() {
		result.AddError("clock drift: engine seq %d, expected %d",
			result.Snapshot.Seq, h.clock.Current())
	}

	for i, assertion := range scenario.Assertions {
		if err := evaluateAssertion(result.Snapshot, assertion); err != nil {
			result.AddError("assertions[%d]: %v", i, err)
		}
	}

	return result, nil
}

// buildPlan converts a scenario's inline plan into a model.PlanDef.
func buildPlan(project model.ProjectID, spec *PlanSpec) *model.PlanDef {
	b := testutil.NewPlanBuilder(project)
	for _, phase := range spec.Phases {
		b.Phase(model.PhaseID(phase.ID), phase.Name, phase.Rank)
	}
	for _, comp := range spec.Components {
		b.ComponentSpec(model.ComponentSpec{
			ID:     model.ComponentID(comp.ID),
			Kind:   model.ComponentKind(comp.Kind),
			Name:   comp.Name,
			Phase:  model.PhaseID(comp.Phase),
			Weight: comp.Weight,
		})
	}
	for _, dep := range spec.Dependencies {
		b.Dep(model.ComponentID(dep.From), model.ComponentID(dep.To), model.EdgeKind(dep.Kind))
	}
	return b.Build()
}

// executeStep applies one step and checks its declared outcome.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	res, err := h.applyStep(ctx, step)

	if step.ExpectError != "" {
		if err == nil {
			result.AddError("steps[%d] %s: expected rejection %s, but mutation was accepted",
				index, step.Op, step.ExpectError)
			// The unexpected acceptance still ticked the engine clock.
			h.clock.Next()
			return
		}
		if code := string(graph.CodeOf(err)); code != step.ExpectError {
			result.AddError("steps[%d] %s: expected rejection %s, got %q (%v)",
				index, step.Op, step.ExpectError, code, err)
		}
		return
	}

	if err != nil {
		result.AddError("steps[%d] %s: unexpected rejection: %v", index, step.Op, err)
		return
	}

	if want := h.clock.Next(); res.Seq != want {
		result.AddError("steps[%d] %s: seq %d, expected %d", index, step.Op, res.Seq, want)
	}

	result.Warnings = append(result.Warnings, res.Warnings...)
	for _, code := range step.ExpectWarnings {
		if !res.HasWarning(engine.WarningCode(code)) {
			result.AddError("steps[%d] %s: expected warning %s, got %s",
				index, step.Op, code, warningCodes(res))
		}
	}
}

func (h *Harness) applyStep(ctx context.Context, step Step) (*engine.MutationResult, error) {
	switch step.Op {
	case OpCreateComponent:
		return h.coord.CreateComponent(ctx, model.ComponentSpec{
			ID:     model.ComponentID(step.ID),
			Kind:   model.ComponentKind(step.Kind),
			Name:   step.Name,
			Phase:  model.PhaseID(step.Phase),
			Weight: step.Weight,
		})
	case OpDeleteComponent:
		return h.coord.DeleteComponent(ctx, model.ComponentID(step.ID))
	case OpAssignDependency:
		return h.coord.AssignDependency(ctx,
			model.ComponentID(step.From), model.ComponentID(step.To), model.EdgeKind(step.Kind))
	case OpRemoveDependency:
		return h.coord.RemoveDependency(ctx,
			model.ComponentID(step.From), model.ComponentID(step.To))
	case OpSetManualOrder:
		return h.coord.SetManualOrder(ctx, model.ComponentID(step.ID), *step.Index)
	case OpClearManualOrder:
		return h.coord.ClearManualOrder(ctx, model.ComponentID(step.ID))
	case OpSetPhases:
		phases := make([]model.Phase, len(step.Phases))
		for i, phase := range step.Phases {
			phases[i] = model.Phase{ID: model.PhaseID(phase.ID), Name: phase.Name, Rank: phase.Rank}
		}
		return h.coord.SetPhases(ctx, phases)
	case OpAssignPhase:
		return h.coord.AssignPhase(ctx, model.ComponentID(step.ID), model.PhaseID(step.Phase))
	case OpSetWeight:
		return h.coord.SetWeight(ctx, model.ComponentID(step.ID), step.Weight)
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func warningCodes(res *engine.MutationResult) string {
	if len(res.Warnings) == 0 {
		return "none"
	}
	codes := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		codes[i] = string(w.Code)
	}
	return strings.Join(codes, ", ")
}
