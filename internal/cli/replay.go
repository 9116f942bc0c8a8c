package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbartley/sequent/internal/engine"
	"github.com/nbartley/sequent/internal/model"
	"github.com/nbartley/sequent/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Project  string // optional - specific project only
}

// ReplaySnapshot is the replayed state of one project.
type ReplaySnapshot struct {
	Project        string   `json:"project"`
	Seq            int64    `json:"seq"`
	Version        string   `json:"version"`
	Components     int      `json:"components"`
	Edges          int      `json:"edges"`
	Order          []string `json:"order"`
	CriticalPath   []string `json:"critical_path"`
	CriticalLength int64    `json:"critical_length"`
	Hash           string   `json:"hash"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Projects []ReplaySnapshot `json:"projects"`
	Total    int              `json:"total"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild project state from the mutation journal",
		Long: `Rebuild project state by re-applying the mutation journal in order.

Every journaled mutation re-runs through the same validation path as a
live edit, so a journal that replays cleanly proves the recorded history
is self-consistent. The rebuilt snapshot is printed with its content
hash for comparison across runs.

Exit codes:
  0 - Replay succeeded
  1 - Journal is corrupt (rejected mutation or sequence mismatch)
  2 - Command error (database not found, etc.)

Examples:
  sequent replay --db ./sequent.db
  sequent replay --db ./sequent.db --project crm-rollout
  sequent replay --db ./sequent.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Project, "project", "", "replay specific project only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	js, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer js.Close()

	var projects []model.ProjectID
	if opts.Project != "" {
		projects = []model.ProjectID{model.ProjectID(opts.Project)}
	} else {
		projects, err = js.Projects(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list projects", err)
		}
	}

	if len(projects) == 0 {
		if opts.Format == "json" {
			return formatter.Success(ReplayResult{Projects: []ReplaySnapshot{}, Total: 0})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No projects found in journal.")
		return nil
	}

	logger := newLogger(cmd, opts.RootOptions)

	result := ReplayResult{
		Projects: make([]ReplaySnapshot, 0, len(projects)),
		Total:    len(projects),
	}

	for _, project := range projects {
		formatter.VerboseLog("Replaying project %s", project)

		coord, err := engine.Replay(ctx, js, project, engine.WithLogger(logger))
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("replay failed for project %s", project), err)
		}

		snap := coord.Snapshot()
		hash, err := snap.Hash()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to hash snapshot", err)
		}

		rs := ReplaySnapshot{
			Project:        string(snap.Project),
			Seq:            snap.Seq,
			Version:        snap.Version,
			Components:     len(snap.Components),
			Edges:          len(snap.Edges),
			Order:          make([]string, len(snap.Order)),
			CriticalPath:   make([]string, len(snap.CriticalPath)),
			CriticalLength: snap.CriticalLength,
			Hash:           hash,
		}
		for i, id := range snap.Order {
			rs.Order[i] = string(id)
		}
		for i, id := range snap.CriticalPath {
			rs.CriticalPath[i] = string(id)
		}

		result.Projects = append(result.Projects, rs)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d project(s)\n\n", result.Total)

	for _, proj := range result.Projects {
		fmt.Fprintf(w, "✓ Project: %s (seq %d, version %s)\n", proj.Project, proj.Seq, proj.Version)
		fmt.Fprintf(w, "  Components: %d, Edges: %d\n", proj.Components, proj.Edges)
		if verbose {
			fmt.Fprintf(w, "  Order: %v\n", proj.Order)
			fmt.Fprintf(w, "  Critical path: %v (length %d)\n", proj.CriticalPath, proj.CriticalLength)
		}
		fmt.Fprintf(w, "  Hash: %s\n\n", proj.Hash)
	}

	return nil
}
