// Package engine implements the sequencing coordinator - the single
// mutation entry point for a project's dependency graph.
//
// ARCHITECTURE:
//
// Single-Writer Per Project:
// Every project owns an independent Coordinator guarding its graph with
// a write lock. Concurrent mutation requests from different collaborators
// apply one at a time in arrival order, each fully validated and
// committed before the next begins. Snapshots take a read lock and always
// observe a consistent point-in-time state, never a partially-applied
// mutation. There is no cross-project coordination; a Registry hands out
// coordinators and projects parallelize freely.
//
// Mutation Processing Flow:
//  1. Validate structurally (unknown nodes, duplicates, self-edges)
//  2. Run the cycle guard for edge insertions - rejection carries the
//     complete offending cycle and makes no change
//  3. Commit to the graph store
//  4. Recompute order and critical path (full recompute, every time)
//  5. Reconcile pinned manual indices the mutation invalidated
//  6. Journal the mutation (when a journal is attached)
//  7. Emit GraphChanged to subscribers
//
// A mutation is not complete - no GraphChanged emitted, caller not
// acknowledged - until recomputation finishes. There is no intermediate
// stale published state, and no mid-flight cancellation once a mutation
// is accepted for commit.
//
// Logical Clock:
// Every accepted mutation consumes exactly one tick of the project's
// monotonic clock. Component registration reuses its mutation's tick as
// the component's created-at ordering key. NEVER use wall-clock
// timestamps for ordering: the clock is what makes replay reproduce
// identical created-at keys, identical tie-breaks, and identical output.
package engine
