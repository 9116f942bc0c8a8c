package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbartley/sequent/internal/model"
)

func testSnapshot() *model.Snapshot {
	idx := 2
	return &model.Snapshot{
		Project: "t",
		Components: []model.Component{
			{ID: "a", Kind: model.KindTable, CreatedSeq: 1, Weight: 2},
			{ID: "b", Kind: model.KindScreen, CreatedSeq: 2},
			{ID: "c", Kind: model.KindFlow, CreatedSeq: 3, ManualIndex: &idx},
		},
		Edges: []model.Edge{
			{From: "a", To: "b", Kind: model.EdgeData},
			{From: "b", To: "c", Kind: model.EdgeTrigger},
		},
		Order:          []model.ComponentID{"a", "b", "c"},
		CriticalPath:   []model.ComponentID{"a", "b", "c"},
		CriticalLength: 4,
		Violations: []model.Violation{
			{Kind: model.ViolationPhaseOrder, Component: "b", Dependency: "a"},
		},
	}
}

func TestEvaluateAssertion_Passing(t *testing.T) {
	snap := testSnapshot()
	idx := 2

	tests := []struct {
		name string
		a    Assertion
	}{
		{"order", Assertion{Type: AssertOrder, Components: []string{"a", "b", "c"}}},
		{"critical path", Assertion{Type: AssertCriticalPath, Components: []string{"a", "b", "c"}}},
		{"critical length", Assertion{Type: AssertCriticalLength, Length: 4}},
		{"pinned", Assertion{Type: AssertPinned, Component: "c"}},
		{"pinned at index", Assertion{Type: AssertPinned, Component: "c", Index: &idx}},
		{"unpinned", Assertion{Type: AssertUnpinned, Component: "a"}},
		{"violation count", Assertion{Type: AssertViolationCount, Count: 1}},
		{"edge count", Assertion{Type: AssertEdgeCount, Count: 2}},
		{"component count", Assertion{Type: AssertComponentCount, Count: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, evaluateAssertion(snap, tt.a))
		})
	}
}

func TestEvaluateAssertion_Failing(t *testing.T) {
	snap := testSnapshot()
	wrong := 7

	tests := []struct {
		name string
		a    Assertion
	}{
		{"wrong order", Assertion{Type: AssertOrder, Components: []string{"c", "b", "a"}}},
		{"short order", Assertion{Type: AssertOrder, Components: []string{"a", "b"}}},
		{"wrong length", Assertion{Type: AssertCriticalLength, Length: 9}},
		{"not pinned", Assertion{Type: AssertPinned, Component: "a"}},
		{"wrong pin index", Assertion{Type: AssertPinned, Component: "c", Index: &wrong}},
		{"pinned not unpinned", Assertion{Type: AssertUnpinned, Component: "c"}},
		{"wrong violation count", Assertion{Type: AssertViolationCount, Count: 0}},
		{"missing component", Assertion{Type: AssertPinned, Component: "ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateAssertion(snap, tt.a)
			require.Error(t, err)

			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
		})
	}
}

func TestAssertionError_Message(t *testing.T) {
	err := evaluateAssertion(testSnapshot(), Assertion{Type: AssertCriticalLength, Length: 9})
	require.Error(t, err)
	assert.Equal(t, "critical_length: expected length 9, got length 4", err.Error())

	err = evaluateAssertion(testSnapshot(), Assertion{Type: AssertUnpinned, Component: "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component ghost present")
	assert.Contains(t, err.Error(), "not found")
}

func TestEvaluateAssertion_UnknownType(t *testing.T) {
	err := evaluateAssertion(testSnapshot(), Assertion{Type: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown assertion type "nope"`)
}
