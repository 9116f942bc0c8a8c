// Package graph implements the per-project dependency graph store and the
// pre-commit cycle guard.
//
// The store holds one project's components and dependency edges as an
// arena keyed by id plus id->set adjacency maps. Nodes never hold direct
// references to other nodes, only ids, so there are no ownership cycles.
//
// The store enforces referential integrity (no dangling edges, no
// self-edges, no duplicate nodes or edges) but deliberately does NOT
// check acyclicity on AddEdge: that is the cycle guard's job, and the
// sequencing coordinator always runs FindCycle before committing an edge.
// Keeping the two concerns separate keeps the guard side-effect free and
// the store's mutations simple.
//
// The store is not safe for concurrent use. The coordinator owns locking;
// see the engine package for the single-writer discipline.
package graph
