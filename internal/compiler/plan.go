package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/nbartley/sequent/internal/model"
)

// CompilePlan parses a CUE value into a PlanDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the plan struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`plan: { project: "crm", ... }`)
//	def, err := CompilePlan(v.LookupPath(cue.ParsePath("plan")))
//
// CompilePlan is structural: it fails fast on the first malformed field,
// with source position. Cross-reference checks (duplicate ids, unknown
// endpoints, unknown phases) are collected by ValidatePlan instead.
func CompilePlan(v cue.Value) (*model.PlanDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	plan := &model.PlanDef{}

	projVal := v.LookupPath(cue.ParsePath("project"))
	if !projVal.Exists() {
		return nil, &CompileError{
			Field:   "project",
			Message: "project is required",
			Pos:     v.Pos(),
		}
	}
	project, err := projVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	plan.Project = model.ProjectID(project)

	plan.Phases, err = parsePhases(v)
	if err != nil {
		return nil, err
	}

	// Components are a list, not a struct keyed by id: declaration order
	// is load order, and load order fixes the created-at ordering keys.
	plan.Components, err = parseComponents(v)
	if err != nil {
		return nil, err
	}
	if len(plan.Components) == 0 {
		return nil, &CompileError{
			Field:   "components",
			Message: "at least one component is required",
			Pos:     v.Pos(),
		}
	}

	plan.Dependencies, err = parseDependencies(v)
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// parsePhases extracts phase declarations. Phases are optional.
func parsePhases(v cue.Value) ([]model.Phase, error) {
	phasesVal := v.LookupPath(cue.ParsePath("phases"))
	if !phasesVal.Exists() {
		return nil, nil
	}

	iter, err := phasesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var phases []model.Phase
	for iter.Next() {
		pv := iter.Value()

		id, err := requiredString(pv, "id", "phase")
		if err != nil {
			return nil, err
		}
		name, err := optionalString(pv, "name")
		if err != nil {
			return nil, err
		}
		rank, err := requiredInt(pv, "rank", fmt.Sprintf("phase %q", id))
		if err != nil {
			return nil, err
		}

		phases = append(phases, model.Phase{
			ID:   model.PhaseID(id),
			Name: name,
			Rank: int(rank),
		})
	}
	return phases, nil
}

// parseComponents extracts component declarations in declaration order.
func parseComponents(v cue.Value) ([]model.ComponentSpec, error) {
	compsVal := v.LookupPath(cue.ParsePath("components"))
	if !compsVal.Exists() {
		return nil, nil
	}

	iter, err := compsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var comps []model.ComponentSpec
	for iter.Next() {
		cv := iter.Value()

		id, err := requiredString(cv, "id", "component")
		if err != nil {
			return nil, err
		}
		kind, err := requiredString(cv, "kind", fmt.Sprintf("component %q", id))
		if err != nil {
			return nil, err
		}
		name, err := optionalString(cv, "name")
		if err != nil {
			return nil, err
		}
		phase, err := optionalString(cv, "phase")
		if err != nil {
			return nil, err
		}

		spec := model.ComponentSpec{
			ID:    model.ComponentID(id),
			Kind:  model.ComponentKind(kind),
			Name:  name,
			Phase: model.PhaseID(phase),
		}

		wVal := cv.LookupPath(cue.ParsePath("weight"))
		if wVal.Exists() {
			w, err := extractInt(wVal, fmt.Sprintf("component %q: weight", id))
			if err != nil {
				return nil, err
			}
			if w <= 0 {
				return nil, &CompileError{
					Field:   fmt.Sprintf("component %q: weight", id),
					Message: fmt.Sprintf("weight must be positive, got %d", w),
					Pos:     wVal.Pos(),
				}
			}
			spec.Weight = w
		}

		comps = append(comps, spec)
	}
	return comps, nil
}

// parseDependencies extracts dependency edges. The edge kind defaults to
// "other" when omitted.
func parseDependencies(v cue.Value) ([]model.DependencySpec, error) {
	depsVal := v.LookupPath(cue.ParsePath("dependencies"))
	if !depsVal.Exists() {
		return nil, nil
	}

	iter, err := depsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var deps []model.DependencySpec
	for iter.Next() {
		dv := iter.Value()

		from, err := requiredString(dv, "from", "dependency")
		if err != nil {
			return nil, err
		}
		to, err := requiredString(dv, "to", "dependency")
		if err != nil {
			return nil, err
		}
		kind, err := optionalString(dv, "kind")
		if err != nil {
			return nil, err
		}
		if kind == "" {
			kind = string(model.EdgeOther)
		}

		deps = append(deps, model.DependencySpec{
			From: model.ComponentID(from),
			To:   model.ComponentID(to),
			Kind: model.EdgeKind(kind),
		})
	}
	return deps, nil
}

func requiredString(v cue.Value, field, owner string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   fmt.Sprintf("%s: %s", owner, field),
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, field, owner string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   fmt.Sprintf("%s: %s", owner, field),
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	return extractInt(fv, fmt.Sprintf("%s: %s", owner, field))
}

// extractInt reads an integer field. Floats are rejected: ranks and
// weights flow into canonically hashed snapshots, which forbid
// non-integer numbers.
func extractInt(v cue.Value, fieldPath string) (int64, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		return n, nil
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   fieldPath,
			Message: "must be an integer, not a float",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   fieldPath,
			Message: fmt.Sprintf("must be an integer, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
