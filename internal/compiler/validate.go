package compiler

import (
	"fmt"
	"strings"

	"github.com/nbartley/sequent/internal/model"
)

// Plan validation error codes (E100-E199)
const (
	// Plan-level errors (E100-E109)
	ErrProjectEmpty       = "E100" // project id is required
	ErrNoComponents       = "E101" // at least one component required
	ErrDuplicateComponent = "E102" // duplicate component id
	ErrInvalidKind        = "E103" // unknown component kind
	ErrDuplicatePhase     = "E104" // duplicate phase id
	ErrUnknownPhaseRef    = "E105" // component references undeclared phase
	ErrInvalidWeight      = "E106" // negative effort weight

	// Dependency errors (E110-E119)
	ErrUnknownEndpoint = "E110" // dependency endpoint not declared
	ErrSelfDependency  = "E111" // component depends on itself
	ErrDuplicateEdge   = "E112" // same (from, to) pair declared twice
	ErrInvalidEdgeKind = "E113" // unknown edge kind
)

// ValidationError represents a plan schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidatePlan checks a compiled plan's cross-references and value
// constraints. Returns all errors found (does not fail-fast), so a
// single validation run reports every problem in the file.
//
// Acyclicity is deliberately not checked here: the engine's cycle guard
// rejects cyclic plans on load, and AnalyzeCycles reports whole-plan
// cycle diagnostics statically.
func ValidatePlan(plan *model.PlanDef) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(string(plan.Project)) == "" {
		errs = append(errs, ValidationError{
			Field:   "project",
			Message: "project id is required and must be non-empty",
			Code:    ErrProjectEmpty,
		})
	}

	if len(plan.Components) == 0 {
		errs = append(errs, ValidationError{
			Field:   "components",
			Message: "at least one component is required",
			Code:    ErrNoComponents,
		})
	}

	phaseIDs := make(map[model.PhaseID]bool)
	for i, phase := range plan.Phases {
		if phaseIDs[phase.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("phases[%d].id", i),
				Message: fmt.Sprintf("duplicate phase id: %q", phase.ID),
				Code:    ErrDuplicatePhase,
			})
		}
		phaseIDs[phase.ID] = true
	}

	componentIDs := make(map[model.ComponentID]bool)
	for i, comp := range plan.Components {
		if componentIDs[comp.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("components[%d].id", i),
				Message: fmt.Sprintf("duplicate component id: %q", comp.ID),
				Code:    ErrDuplicateComponent,
			})
		}
		componentIDs[comp.ID] = true

		if !comp.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("components[%d].kind", i),
				Message: fmt.Sprintf("invalid kind %q for component %q", comp.Kind, comp.ID),
				Code:    ErrInvalidKind,
			})
		}

		if comp.Phase != "" && !phaseIDs[comp.Phase] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("components[%d].phase", i),
				Message: fmt.Sprintf("component %q references undeclared phase %q", comp.ID, comp.Phase),
				Code:    ErrUnknownPhaseRef,
			})
		}

		// Zero means unset (defaults to 1); explicit non-positive weights
		// are rejected at parse time, this catches programmatic misuse.
		if comp.Weight < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("components[%d].weight", i),
				Message: fmt.Sprintf("negative weight %d for component %q", comp.Weight, comp.ID),
				Code:    ErrInvalidWeight,
			})
		}
	}

	type pair struct{ from, to model.ComponentID }
	seen := make(map[pair]bool)
	for i, dep := range plan.Dependencies {
		if !componentIDs[dep.From] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d].from", i),
				Message: fmt.Sprintf("unknown component %q", dep.From),
				Code:    ErrUnknownEndpoint,
			})
		}
		if !componentIDs[dep.To] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d].to", i),
				Message: fmt.Sprintf("unknown component %q", dep.To),
				Code:    ErrUnknownEndpoint,
			})
		}

		if dep.From == dep.To {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d]", i),
				Message: fmt.Sprintf("component %q cannot depend on itself", dep.From),
				Code:    ErrSelfDependency,
			})
		}

		p := pair{dep.From, dep.To}
		if seen[p] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d]", i),
				Message: fmt.Sprintf("duplicate dependency %q -> %q", dep.From, dep.To),
				Code:    ErrDuplicateEdge,
			})
		}
		seen[p] = true

		if dep.Kind != "" && !dep.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("dependencies[%d].kind", i),
				Message: fmt.Sprintf("invalid edge kind %q", dep.Kind),
				Code:    ErrInvalidEdgeKind,
			})
		}
	}

	return errs
}
