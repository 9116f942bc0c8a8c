package harness

import (
	"fmt"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/model"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every step behaved as
	// declared and every assertion matched.
	Pass bool `json:"pass"`

	// Errors contains step and assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Warnings collects every warning emitted by accepted mutations,
	// in step order.
	Warnings []engine.Warning `json:"warnings,omitempty"`

	// Snapshot is the final project state, used by assertions and
	// golden comparison.
	Snapshot *model.Snapshot `json:"snapshot"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
