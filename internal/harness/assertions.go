package harness

import (
	"fmt"

	"github.com/nbartley/sequent/internal/model"
)

// AssertionError is returned when an assertion fails. It includes the
// expected and actual outcomes to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluateAssertion checks one assertion against the final snapshot.
func evaluateAssertion(snap *model.Snapshot, a Assertion) error {
	switch a.Type {
	case AssertOrder:
		return assertIDSequence(a.Type, snap.Order, a.Components)
	case AssertCriticalPath:
		return assertIDSequence(a.Type, snap.CriticalPath, a.Components)
	case AssertCriticalLength:
		if snap.CriticalLength != a.Length {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("length %d", a.Length),
				Actual:   fmt.Sprintf("length %d", snap.CriticalLength),
			}
		}
		return nil
	case AssertPinned:
		return assertPinned(snap, a)
	case AssertUnpinned:
		comp, err := findComponent(snap, a.Component, a.Type)
		if err != nil {
			return err
		}
		if comp.Pinned() {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s unpinned", a.Component),
				Actual:   fmt.Sprintf("pinned at %d", *comp.ManualIndex),
			}
		}
		return nil
	case AssertViolationCount:
		return assertCount(a.Type, len(snap.Violations), a.Count)
	case AssertEdgeCount:
		return assertCount(a.Type, len(snap.Edges), a.Count)
	case AssertComponentCount:
		return assertCount(a.Type, len(snap.Components), a.Count)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertIDSequence(typ string, got []model.ComponentID, want []string) error {
	match := len(got) == len(want)
	if match {
		for i := range got {
			if string(got[i]) != want[i] {
				match = false
				break
			}
		}
	}
	if !match {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertPinned(snap *model.Snapshot, a Assertion) error {
	comp, err := findComponent(snap, a.Component, a.Type)
	if err != nil {
		return err
	}
	if !comp.Pinned() {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s pinned", a.Component),
			Actual:   "unpinned",
		}
	}
	if a.Index != nil && *comp.ManualIndex != *a.Index {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s pinned at %d", a.Component, *a.Index),
			Actual:   fmt.Sprintf("pinned at %d", *comp.ManualIndex),
		}
	}
	return nil
}

func assertCount(typ string, got, want int) error {
	if got != want {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%d", want),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func findComponent(snap *model.Snapshot, id, typ string) (model.Component, error) {
	for _, comp := range snap.Components {
		if string(comp.ID) == id {
			return comp, nil
		}
	}
	return model.Component{}, &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("component %s present", id),
		Actual:   "not found",
	}
}
