package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/model"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_PlanOnly(t *testing.T) {
	s := mustParse(t, `
name: diamond
description: Diamond-shaped dependencies order deterministically.
project: demo
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
    - id: c
      kind: flow
    - id: d
      kind: list
  dependencies:
    - from: a
      to: b
    - from: a
      to: c
    - from: b
      to: d
    - from: c
      to: d
assertions:
  - type: order
    components: [a, b, c, d]
  - type: critical_path
    components: [a, b, d]
  - type: critical_length
    length: 3
  - type: component_count
    count: 4
  - type: edge_count
    count: 4
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, model.ProjectID("demo"), result.Snapshot.Project)
	// One phase set, four components, four edges.
	assert.Equal(t, int64(9), result.Snapshot.Seq)
}

func TestRun_StepsOnly(t *testing.T) {
	s := mustParse(t, `
name: incremental
description: A graph built one mutation at a time.
steps:
  - op: create_component
    id: accounts
    kind: table
    weight: 3
  - op: create_component
    id: browse
    kind: screen
  - op: assign_dependency
    from: accounts
    to: browse
    kind: data
assertions:
  - type: order
    components: [accounts, browse]
  - type: critical_length
    length: 4
  - type: edge_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, model.ProjectID("scenario"), result.Snapshot.Project)
	assert.Equal(t, int64(3), result.Snapshot.Seq)
}

func TestRun_ExpectedCycleRejection(t *testing.T) {
	s := mustParse(t, `
name: cycle-guard
description: Closing a cycle is rejected and consumes no sequence number.
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
  dependencies:
    - from: a
      to: b
steps:
  - op: assign_dependency
    from: b
    to: a
    expect_error: CYCLE_DETECTED
assertions:
  - type: edge_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	// Plan only: the rejected edge must not have ticked the clock.
	assert.Equal(t, int64(4), result.Snapshot.Seq)
}

func TestRun_ExpectedOrderViolation(t *testing.T) {
	s := mustParse(t, `
name: pin-conflict
description: Pinning a component before its predecessor is rejected.
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
    - id: c
      kind: flow
  dependencies:
    - from: a
      to: b
    - from: b
      to: c
steps:
  - op: set_manual_order
    id: c
    index: 0
    expect_error: ORDER_VIOLATION
assertions:
  - type: unpinned
    component: c
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ManualOrderInvalidatedWarning(t *testing.T) {
	s := mustParse(t, `
name: pin-invalidation
description: A new edge that contradicts a pin unpins it with a warning.
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
    - id: c
      kind: flow
  dependencies:
    - from: a
      to: b
steps:
  - op: set_manual_order
    id: c
    index: 0
  - op: assign_dependency
    from: b
    to: c
    expect_warnings: [MANUAL_ORDER_INVALIDATED]
assertions:
  - type: unpinned
    component: c
  - type: order
    components: [a, b, c]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.NotEmpty(t, result.Warnings)
	var codes []engine.WarningCode
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, engine.WarnManualOrderInvalidated)
}

func TestRun_PhaseOrderWarning(t *testing.T) {
	s := mustParse(t, `
name: phase-warning
description: Assigning a phase that contradicts a dependency warns.
plan:
  phases:
    - id: p1
      name: Foundation
      rank: 1
    - id: p2
      name: Build-out
      rank: 2
  components:
    - id: t1
      kind: table
      phase: p2
    - id: s1
      kind: screen
  dependencies:
    - from: t1
      to: s1
steps:
  - op: assign_phase
    id: s1
    phase: p1
    expect_warnings: [PHASE_ORDER_WARNING]
assertions:
  - type: violation_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Snapshot.Violations, 1)
	assert.Equal(t, model.ViolationPhaseOrder, result.Snapshot.Violations[0].Kind)
	assert.Equal(t, model.ComponentID("s1"), result.Snapshot.Violations[0].Component)
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	s := mustParse(t, `
name: bad-edge
description: A rejection the scenario does not declare fails the run.
steps:
  - op: create_component
    id: a
    kind: table
  - op: assign_dependency
    from: a
    to: ghost
assertions:
  - type: component_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected rejection")
}

func TestRun_ExpectedRejectionButAcceptedFails(t *testing.T) {
	s := mustParse(t, `
name: over-expectation
description: Declaring a rejection that does not happen fails the run.
steps:
  - op: create_component
    id: a
    kind: table
    expect_error: DUPLICATE_NODE
assertions:
  - type: component_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected rejection DUPLICATE_NODE")
}

func TestRun_WrongRejectionCodeFails(t *testing.T) {
	s := mustParse(t, `
name: wrong-code
description: A rejection with the wrong code fails the run.
plan:
  components:
    - id: a
      kind: table
steps:
  - op: create_component
    id: a
    kind: table
    expect_error: CYCLE_DETECTED
assertions:
  - type: component_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected rejection CYCLE_DETECTED")
}

func TestRun_MissingWarningFails(t *testing.T) {
	s := mustParse(t, `
name: phantom-warning
description: Expecting a warning the mutation does not emit fails.
steps:
  - op: create_component
    id: a
    kind: table
    expect_warnings: [PHASE_ORDER_WARNING]
assertions:
  - type: component_count
    count: 1
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected warning PHASE_ORDER_WARNING")
}

func TestRun_FailedAssertionReported(t *testing.T) {
	s := mustParse(t, `
name: wrong-order
description: Assertion failures carry expected and actual sequences.
steps:
  - op: create_component
    id: a
    kind: table
  - op: create_component
    id: b
    kind: screen
  - op: assign_dependency
    from: a
    to: b
assertions:
  - type: order
    components: [b, a]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "order")
}

func TestRun_PinnedAssertion(t *testing.T) {
	s := mustParse(t, `
name: pin-holds
description: A consistent pin survives later mutations.
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
  dependencies:
    - from: a
      to: b
steps:
  - op: set_manual_order
    id: b
    index: 5
  - op: set_weight
    id: a
    weight: 2
assertions:
  - type: pinned
    component: b
    index: 5
  - type: critical_length
    length: 3
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DeleteAndRemove(t *testing.T) {
	s := mustParse(t, `
name: teardown
description: Deleting components and edges shrinks the snapshot.
plan:
  components:
    - id: a
      kind: table
    - id: b
      kind: screen
    - id: c
      kind: flow
  dependencies:
    - from: a
      to: b
    - from: b
      to: c
steps:
  - op: remove_dependency
    from: b
    to: c
  - op: delete_component
    id: c
assertions:
  - type: component_count
    count: 2
  - type: edge_count
    count: 1
  - type: order
    components: [a, b]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
