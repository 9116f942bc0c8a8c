package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nbartley/sequent/internal/model"
)

// Code categorizes structural graph errors.
type Code string

const (
	// CodeDuplicateNode indicates a component id is already registered.
	CodeDuplicateNode Code = "DUPLICATE_NODE"

	// CodeUnknownNode indicates a referenced component is not in the store.
	CodeUnknownNode Code = "UNKNOWN_NODE"

	// CodeSelfDependency indicates an edge from a component to itself.
	CodeSelfDependency Code = "SELF_DEPENDENCY"

	// CodeDuplicateEdge indicates the ordered (from, to) pair already exists.
	CodeDuplicateEdge Code = "DUPLICATE_EDGE"

	// CodeUnknownEdge indicates the ordered (from, to) pair does not exist.
	CodeUnknownEdge Code = "UNKNOWN_EDGE"

	// CodeCycleDetected indicates a proposed edge would close a cycle.
	CodeCycleDetected Code = "CYCLE_DETECTED"

	// CodeOrderViolation indicates a manual index would place a component
	// before one of its transitive dependencies.
	CodeOrderViolation Code = "ORDER_VIOLATION"
)

// Error is a structural graph error. All graph mutations reject with an
// *Error and make no partial change. User-correctable conditions carry
// the implicated components so callers can explain the conflict:
// CodeCycleDetected carries the complete offending cycle, and
// CodeOrderViolation carries the conflicting predecessor.
type Error struct {
	Code    Code
	Message string

	// Component is the subject of node-level errors.
	Component model.ComponentID

	// From/To identify the edge for edge-level errors.
	From model.ComponentID
	To   model.ComponentID

	// Cycle is the complete offending cycle for CodeCycleDetected,
	// starting and ending at the same component.
	Cycle []model.ComponentID

	// Predecessor is the conflicting transitive dependency for
	// CodeOrderViolation.
	Predecessor model.ComponentID
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case len(e.Cycle) > 0:
		return fmt.Sprintf("%s: %s (cycle: %s)", e.Code, e.Message, joinIDs(e.Cycle))
	case e.Predecessor != "":
		return fmt.Sprintf("%s: %s (component=%s, predecessor=%s)", e.Code, e.Message, e.Component, e.Predecessor)
	case e.From != "" || e.To != "":
		return fmt.Sprintf("%s: %s (%s -> %s)", e.Code, e.Message, e.From, e.To)
	case e.Component != "":
		return fmt.Sprintf("%s: %s (component=%s)", e.Code, e.Message, e.Component)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func joinIDs(ids []model.ComponentID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}

// NewDuplicateNode creates an Error for an already-registered component.
func NewDuplicateNode(id model.ComponentID) *Error {
	return &Error{
		Code:      CodeDuplicateNode,
		Message:   "component already registered",
		Component: id,
	}
}

// NewUnknownNode creates an Error for an unregistered component reference.
func NewUnknownNode(id model.ComponentID) *Error {
	return &Error{
		Code:      CodeUnknownNode,
		Message:   "component not found",
		Component: id,
	}
}

// NewSelfDependency creates an Error for a self-edge.
func NewSelfDependency(id model.ComponentID) *Error {
	return &Error{
		Code:      CodeSelfDependency,
		Message:   "component cannot depend on itself",
		Component: id,
		From:      id,
		To:        id,
	}
}

// NewDuplicateEdge creates an Error for an already-existing edge.
func NewDuplicateEdge(from, to model.ComponentID) *Error {
	return &Error{
		Code:    CodeDuplicateEdge,
		Message: "dependency already exists",
		From:    from,
		To:      to,
	}
}

// NewUnknownEdge creates an Error for a missing edge.
func NewUnknownEdge(from, to model.ComponentID) *Error {
	return &Error{
		Code:    CodeUnknownEdge,
		Message: "dependency not found",
		From:    from,
		To:      to,
	}
}

// NewCycleDetected creates an Error for a rejected edge, carrying the
// complete cycle the edge would have closed.
func NewCycleDetected(from, to model.ComponentID, cycle []model.ComponentID) *Error {
	return &Error{
		Code:    CodeCycleDetected,
		Message: "dependency would create a cycle",
		From:    from,
		To:      to,
		Cycle:   cycle,
	}
}

// NewOrderViolation creates an Error for a manual index that would place
// a component before its transitive dependency.
func NewOrderViolation(id, predecessor model.ComponentID, index, predecessorIndex int) *Error {
	return &Error{
		Code: CodeOrderViolation,
		Message: fmt.Sprintf("manual index %d places component before dependency at index %d",
			index, predecessorIndex),
		Component:   id,
		Predecessor: predecessor,
	}
}

// IsCycleError reports whether err is a CodeCycleDetected graph error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == CodeCycleDetected
}

// IsOrderViolation reports whether err is a CodeOrderViolation graph error.
func IsOrderViolation(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Code == CodeOrderViolation
}

// CodeOf extracts the graph error code from err, or "" when err is not a
// graph error. Handles wrapped errors.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
