package engine

import (
	"fmt"

	"github.com/nbartley/sequent/internal/model"
)

// WarningCode categorizes non-fatal conditions returned alongside an
// otherwise-successful mutation. Warnings never block a mutation.
type WarningCode string

const (
	// WarnPhaseOrder: a phase assignment contradicts dependency order -
	// a dependency's component landed in a later-ranked phase than its
	// dependent. The assignment still succeeds; phase planning is
	// advisory relative to the hard dependency graph.
	WarnPhaseOrder WarningCode = "PHASE_ORDER_WARNING"

	// WarnManualOrderInvalidated: an accepted edge mutation made
	// previously valid pinned manual indices inconsistent. The affected
	// components were unpinned (reverted to computed order); the caller
	// must surface which ones.
	WarnManualOrderInvalidated WarningCode = "MANUAL_ORDER_INVALIDATED"
)

// Warning is a non-fatal condition attached to a successful mutation.
type Warning struct {
	Code    WarningCode           `json:"code"`
	Message string                `json:"message"`
	// Components lists the affected component ids: the unpinned
	// components for MANUAL_ORDER_INVALIDATED, the dependent component
	// for PHASE_ORDER_WARNING.
	Components []model.ComponentID `json:"components,omitempty"`
	// Dependency and the phase pair are set for PHASE_ORDER_WARNING.
	Dependency      model.ComponentID `json:"dependency,omitempty"`
	ComponentPhase  model.PhaseID     `json:"component_phase,omitempty"`
	DependencyPhase model.PhaseID     `json:"dependency_phase,omitempty"`
}

// MutationResult acknowledges an accepted mutation.
type MutationResult struct {
	// Seq is the logical clock value consumed by the mutation.
	Seq int64 `json:"seq"`

	// Version is the new authoritative graph version token.
	Version string `json:"version"`

	// Warnings carries non-fatal conditions (phase-order conflicts,
	// invalidated manual indices). Empty on a clean mutation.
	Warnings []Warning `json:"warnings,omitempty"`
}

// HasWarning reports whether the result carries a warning of the given
// code.
func (r *MutationResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// InvalidatedComponents returns the component ids unpinned by this
// mutation, or nil.
func (r *MutationResult) InvalidatedComponents() []model.ComponentID {
	for _, w := range r.Warnings {
		if w.Code == WarnManualOrderInvalidated {
			return w.Components
		}
	}
	return nil
}

func newPhaseOrderWarning(v model.Violation) Warning {
	return Warning{
		Code: WarnPhaseOrder,
		Message: fmt.Sprintf("dependency %s is assigned to a later phase than %s",
			v.Dependency, v.Component),
		Components:      []model.ComponentID{v.Component},
		Dependency:      v.Dependency,
		ComponentPhase:  v.ComponentPhase,
		DependencyPhase: v.DependencyPhase,
	}
}

func newManualOrderInvalidatedWarning(ids []model.ComponentID) Warning {
	return Warning{
		Code:       WarnManualOrderInvalidated,
		Message:    "edge mutation invalidated pinned manual indices; components reverted to computed order",
		Components: ids,
	}
}
