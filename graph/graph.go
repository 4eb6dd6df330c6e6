// Package graph builds and repairs the process dependency graph. The graph
// is an adjacency mapping keyed by stable process ids: deps[b] containing a
// means "b depends on a, a must complete first". Working on ids rather than
// entity references keeps edge removal a plain slice operation with no
// aliasing hazards.
package graph

import (
	"log/slog"
	"slices"
	"sort"
)

// ParseDependencies converts a raw object recovered from an LLM answer into
// a validated adjacency mapping. Keys not in knownIDs are dropped, as are
// referenced ids that are unknown or equal to their key (self-dependency).
// The result is total over knownIDs: ids absent from the raw object get an
// empty dependency list and are independently startable.
func ParseDependencies(raw map[string]any, knownIDs []string) map[string][]string {
	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}

	deps := make(map[string][]string, len(knownIDs))
	for _, id := range knownIDs {
		deps[id] = []string{}
		list, ok := raw[id].([]any)
		if !ok {
			continue
		}
		for _, ref := range list {
			dep, ok := ref.(string)
			if !ok {
				continue
			}
			if dep == id {
				slog.Debug("graph: dropping self-dependency", "id", id)
				continue
			}
			if !known[dep] {
				slog.Debug("graph: dropping unknown dependency reference",
					"id", id, "ref", dep)
				continue
			}
			deps[id] = append(deps[id], dep)
		}
	}
	return deps
}

// HasCycles reports whether the dependency graph contains a directed cycle.
func HasCycles(deps map[string][]string) bool {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		for _, dep := range deps[node] {
			if !visited[dep] {
				if dfs(dep) {
					return true
				}
			} else if onStack[dep] {
				return true
			}
		}
		onStack[node] = false
		return false
	}

	for _, node := range sortedNodes(deps) {
		if !visited[node] && dfs(node) {
			return true
		}
	}
	return false
}

// FindCycles returns every cycle reachable from an unvisited node, each as
// the node path closing back on itself. Diagnostic helper for validation
// messages.
func FindCycles(deps map[string][]string) [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		if onStack[node] {
			start := slices.Index(path, node)
			cycle := append(slices.Clone(path[start:]), node)
			cycles = append(cycles, cycle)
			return
		}
		if visited[node] {
			return
		}
		visited[node] = true
		onStack[node] = true
		path = append(path, node)
		for _, dep := range deps[node] {
			dfs(dep)
		}
		onStack[node] = false
		path = path[:len(path)-1]
	}

	for _, node := range sortedNodes(deps) {
		if !visited[node] {
			dfs(node)
		}
	}
	return cycles
}

// ResolveCycles returns a copy of deps with every directed cycle broken.
// When enabled is false the mapping is returned unchanged and cycles, if
// any, are explicitly tolerated.
//
// Resolution is a depth-first traversal keeping a recursion stack: an edge
// whose target is already on the active stack is a back edge completing a
// cycle and is removed, then the traversal continues without it. Nodes are
// visited in sorted id order so removal is deterministic. This is a greedy
// heuristic, not a minimum feedback-arc set (that problem is NP-hard); it
// only guarantees the result is acyclic.
func ResolveCycles(deps map[string][]string, enabled bool) map[string][]string {
	if !enabled {
		return deps
	}
	if !HasCycles(deps) {
		return deps
	}

	slog.Warn("graph: cycles detected in dependencies, removing back edges")

	clean := make(map[string][]string, len(deps))
	for node, list := range deps {
		clean[node] = slices.Clone(list)
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = true

		kept := clean[node][:0]
		for _, dep := range clean[node] {
			if onStack[dep] {
				// Back edge: dropping this dependency breaks the cycle.
				slog.Warn("graph: removing cyclic dependency", "from", node, "to", dep)
				continue
			}
			kept = append(kept, dep)
			if !visited[dep] {
				dfs(dep)
			}
		}
		clean[node] = kept

		onStack[node] = false
	}

	for _, node := range sortedNodes(clean) {
		if !visited[node] {
			dfs(node)
		}
	}

	// A node first reached after its edges were already scanned elsewhere
	// can still close a cycle through already-visited nodes. Repeat until a
	// full traversal finds no remaining back edges.
	if HasCycles(clean) {
		return ResolveCycles(clean, true)
	}
	return clean
}

// TopologicalSort returns the nodes in an order where every dependency
// precedes its dependents. The ok result is false when the graph still
// contains a cycle.
func TopologicalSort(deps map[string][]string) ([]string, bool) {
	if HasCycles(deps) {
		return nil, false
	}

	// deps[b] = [a] means a must run before b, so in-degree counts how many
	// unfinished dependencies each node has.
	inDegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))
	for node, list := range deps {
		inDegree[node] += len(list)
		for _, dep := range list {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var queue []string
	for _, node := range sortedNodes(deps) {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	order := make([]string, 0, len(deps))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		next := slices.Clone(dependents[node])
		sort.Strings(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	return order, true
}

// EdgeCount returns the total number of dependency edges in the mapping.
func EdgeCount(deps map[string][]string) int {
	n := 0
	for _, list := range deps {
		n += len(list)
	}
	return n
}

// sortedNodes returns the mapping's keys in lexicographic order. Go map
// iteration is randomized; a fixed order keeps traversal, and therefore
// greedy edge removal, deterministic.
func sortedNodes(deps map[string][]string) []string {
	nodes := make([]string, 0, len(deps))
	for node := range deps {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}
