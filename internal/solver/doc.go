// Package solver computes the deterministic build order and the critical
// path for a guaranteed-acyclic dependency graph.
//
// DETERMINISM CONTRACT:
//
// Topological order breaks ties by the created-at ordering key (smallest
// first), falling back to id ordinal. Critical-path ties are broken the
// same way: among equal-length paths the terminal node with the smallest
// created-at key wins, and path reconstruction prefers the predecessor
// with the smallest created-at key. Re-running the solver on an unchanged
// graph yields byte-identical output.
//
// Recomputation is incremental in trigger, not in algorithm: every
// accepted mutation recomputes the whole project from scratch. Project
// graphs are tens to low hundreds of components; correctness and
// simplicity dominate over incremental DAG algorithms at that scale.
package solver
