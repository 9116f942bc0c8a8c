package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/model"
)

// ComponentPosition is one component's computed placement.
type ComponentPosition struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Name           string `json:"name,omitempty"`
	Phase          string `json:"phase,omitempty"`
	TopoRank       int    `json:"topo_rank"`
	Earliest       int    `json:"earliest"`
	Weight         int64  `json:"weight"`
	OnCriticalPath bool   `json:"on_critical_path"`
	Pinned         bool   `json:"pinned"`
}

// OrderResult holds the computed sequencing for a plan.
type OrderResult struct {
	Project        string              `json:"project"`
	Order          []string            `json:"order"`
	CriticalPath   []string            `json:"critical_path"`
	CriticalLength int64               `json:"critical_length"`
	Positions      []ComponentPosition `json:"positions"`
	Violations     []model.Violation   `json:"violations,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <plan-dir>",
		Short: "Compute build order and critical path for a plan",
		Long: `Load a plan definition into an in-memory engine and print the
topological build order, the critical path, and per-component positions.

The engine applies the same validation as live editing, so a plan that
declares a dependency cycle is rejected here with the full cycle path.

Exit codes:
  0 - Order computed
  1 - Plan rejected by the engine (cycle, invalid reference, etc.)
  2 - Command error (directory not found, CUE load failed, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(opts *RootOptions, planDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, err := LoadPlan(planDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			if loadErr.Code == ErrCodeCompileFailed {
				return NewExitError(ExitFailure, loadErr.Error())
			}
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	coord := engine.New(result.Plan.Project, engine.WithLogger(newLogger(cmd, opts)))
	if err := coord.ApplyPlan(context.Background(), result.Plan); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	snap := coord.Snapshot()
	return outputOrder(formatter, snap)
}

func outputOrder(formatter *OutputFormatter, snap *model.Snapshot) error {
	result := buildOrderResult(snap)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer

	fmt.Fprintf(w, "Project: %s\n\n", result.Project)

	fmt.Fprintln(w, "Build order:")
	byID := make(map[model.ComponentID]model.Component, len(snap.Components))
	for _, comp := range snap.Components {
		byID[comp.ID] = comp
	}
	for i, id := range snap.Order {
		comp := byID[id]
		line := fmt.Sprintf("  %2d. %s (%s)", i+1, comp.ID, comp.Kind)
		if comp.Phase != "" {
			line += fmt.Sprintf(" [%s]", comp.Phase)
		}
		if comp.Pinned() {
			line += " *pinned"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nCritical path (length %d):\n", result.CriticalLength)
	fmt.Fprintf(w, "  %s\n", strings.Join(result.CriticalPath, " -> "))

	if len(result.Violations) > 0 {
		fmt.Fprintln(w, "\nViolations:")
		for _, v := range result.Violations {
			fmt.Fprintf(w, "  %s: %s (%s) depends on %s (%s)\n",
				v.Kind, v.Component, v.ComponentPhase, v.Dependency, v.DependencyPhase)
		}
	}

	return nil
}

func buildOrderResult(snap *model.Snapshot) OrderResult {
	result := OrderResult{
		Project:        string(snap.Project),
		Order:          make([]string, len(snap.Order)),
		CriticalPath:   make([]string, len(snap.CriticalPath)),
		CriticalLength: snap.CriticalLength,
		Violations:     snap.Violations,
	}
	for i, id := range snap.Order {
		result.Order[i] = string(id)
	}
	for i, id := range snap.CriticalPath {
		result.CriticalPath[i] = string(id)
	}

	byID := make(map[model.ComponentID]model.Component, len(snap.Components))
	for _, comp := range snap.Components {
		byID[comp.ID] = comp
	}

	// Positions follow the computed order, one entry per component.
	for _, id := range snap.Order {
		comp := byID[id]
		pos := snap.Positions[id]
		result.Positions = append(result.Positions, ComponentPosition{
			ID:             string(comp.ID),
			Kind:           string(comp.Kind),
			Name:           comp.Name,
			Phase:          string(comp.Phase),
			TopoRank:       pos.TopoRank,
			Earliest:       pos.Earliest,
			Weight:         comp.EffectiveWeight(),
			OnCriticalPath: pos.OnCriticalPath,
			Pinned:         pos.Pinned,
		})
	}

	return result
}
