package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/model"
)

// PlanBuilder assembles a model.PlanDef incrementally. Declaration order
// is preserved, so component order in the builder fixes the created-at
// ordering keys when the plan is loaded.
type PlanBuilder struct {
	plan model.PlanDef
}

// NewPlanBuilder starts a plan for the given project.
func NewPlanBuilder(project model.ProjectID) *PlanBuilder {
	return &PlanBuilder{plan: model.PlanDef{Project: project}}
}

// Phase declares a delivery phase.
func (b *PlanBuilder) Phase(id model.PhaseID, name string, rank int) *PlanBuilder {
	b.plan.Phases = append(b.plan.Phases, model.Phase{ID: id, Name: name, Rank: rank})
	return b
}

// Component declares a component with defaults (no phase, unit weight).
func (b *PlanBuilder) Component(id model.ComponentID, kind model.ComponentKind) *PlanBuilder {
	b.plan.Components = append(b.plan.Components, model.ComponentSpec{ID: id, Kind: kind})
	return b
}

// ComponentSpec declares a fully specified component.
func (b *PlanBuilder) ComponentSpec(spec model.ComponentSpec) *PlanBuilder {
	b.plan.Components = append(b.plan.Components, spec)
	return b
}

// Dep declares a dependency edge.
func (b *PlanBuilder) Dep(from, to model.ComponentID, kind model.EdgeKind) *PlanBuilder {
	b.plan.Dependencies = append(b.plan.Dependencies, model.DependencySpec{From: from, To: to, Kind: kind})
	return b
}

// Build returns the assembled plan.
func (b *PlanBuilder) Build() *model.PlanDef {
	return &b.plan
}

// QuietLogger returns a logger that discards everything. Keeps engine
// noise out of test output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewCoordinator builds a coordinator with deterministic options (quiet
// logger, sequential version tokens) and the plan applied. Fails the
// test on any rejected mutation.
func NewCoordinator(t *testing.T, plan *model.PlanDef) *engine.Coordinator {
	t.Helper()
	c := engine.New(plan.Project,
		engine.WithLogger(QuietLogger()),
		engine.WithVersionGenerator(&engine.SequentialVersionGenerator{}))
	require.NoError(t, c.ApplyPlan(context.Background(), plan))
	return c
}
