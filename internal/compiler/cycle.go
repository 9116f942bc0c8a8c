package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nbartley/sequent/internal/model"
)

// CycleWarning reports a dependency cycle found by static plan analysis.
//
// Unlike the engine's incremental guard, which rejects the single edge
// closing a cycle, static analysis sees the whole declared plan at once
// and can report every cycle before any edge is applied.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeCycles performs static cycle analysis on a plan's declared
// dependencies.
//
// The algorithm:
//  1. Build the component adjacency from declared edges
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a cycle
//
// A DAG (no cycles) returns an empty list. Output is deterministic:
// components are visited in declaration order and neighbors in sorted
// order, so the same plan always yields the same warnings in the same
// sequence.
func AnalyzeCycles(plan *model.PlanDef) []CycleWarning {
	if len(plan.Dependencies) == 0 {
		return nil
	}

	nodes := make([]string, 0, len(plan.Components))
	for _, comp := range plan.Components {
		nodes = append(nodes, string(comp.ID))
	}
	graph := buildAdjacency(plan)

	sccs := tarjanSCC(nodes, graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	return warnings
}

// adjacency maps component id to the ids it unlocks.
type adjacency map[string][]string

func buildAdjacency(plan *model.PlanDef) adjacency {
	graph := make(adjacency)
	for _, dep := range plan.Dependencies {
		graph[string(dep.From)] = append(graph[string(dep.From)], string(dep.To))
	}
	for from := range graph {
		sort.Strings(graph[from])
	}
	return graph
}

func hasSelfLoop(node string, graph adjacency) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of component ids.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(nodes []string, graph adjacency) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Declaration order, not map order - keeps output deterministic.
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToWarning(scc []string, graph adjacency) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("component depends on itself: %s -> %s", id, id),
		}
	}

	// Stack-pop order is an implementation detail; anchor the reported
	// path at the smallest member id so equal plans report equal paths.
	members := append([]string(nil), scc...)
	sort.Strings(members)

	path := reconstructCyclePath(members, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath walks edges within the SCC from its first member
// until it returns to the start, yielding one concrete cycle traversal.
func reconstructCyclePath(scc []string, graph adjacency) []string {
	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
