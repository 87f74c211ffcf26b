// Package graph orders build configurations by the resource directories
// they share.
//
// A configuration that lists another configuration's main resource
// directory among its additional directories depends on it: the provider
// is built first. Configurations with no such relationship are independent
// and may be built concurrently.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Norgate-AV/asb/internal/codes"
	"github.com/Norgate-AV/asb/internal/config"
	"github.com/Norgate-AV/asb/internal/utils"
)

// Edge records that config Dependent uses the main resource directory of
// config DependsOn
type Edge struct {
	Dependent int
	DependsOn int
}

// CycleError reports configurations whose dependencies form a cycle
type CycleError struct {
	// Remaining holds the indices that could not be ordered
	Remaining []int
	// Names holds the package name of each remaining config
	Names []string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Remaining))
	for i, idx := range e.Remaining {
		parts[i] = fmt.Sprintf("%d (%s)", idx, e.Names[i])
	}

	return "circular dependency between configurations " + strings.Join(parts, ", ")
}

type options struct {
	components bool
}

// Option configures Resolve
type Option func(*options)

// WithComponentGroups splits dependent configurations into one group per
// connected component, so unrelated dependency chains can run concurrently
func WithComponentGroups() Option {
	return func(o *options) {
		o.components = true
	}
}

// Edges returns every dependency between configs, ordered by dependent and
// then provider index
func Edges(configs []config.BuildConfig) []Edge {
	providers := make(map[string][]int)
	for i := range configs {
		main := utils.NormalizePath(configs[i].ResourceDir)
		providers[main] = append(providers[main], i)
	}

	var edges []Edge
	for i := range configs {
		seen := make(map[int]bool)
		for _, dir := range configs[i].AdditionalResourceDirs {
			for _, p := range providers[utils.NormalizePath(dir)] {
				if p != i && !seen[p] {
					seen[p] = true
					edges = append(edges, Edge{Dependent: i, DependsOn: p})
				}
			}
		}
	}

	sort.Slice(edges, func(a, b int) bool {
		if edges[a].Dependent != edges[b].Dependent {
			return edges[a].Dependent < edges[b].Dependent
		}
		return edges[a].DependsOn < edges[b].DependsOn
	})

	return edges
}

// Resolve partitions configs into independent configurations and dependent
// groups. Every configuration on either side of an edge belongs to a
// dependent group, listed in topological order; by default all of them form
// a single group. A cycle fails the whole resolution with a *CycleError.
func Resolve(configs []config.BuildConfig, opts ...Option) (independent []int, groups [][]int, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch len(configs) {
	case 0:
		return nil, nil, nil
	case 1:
		return []int{0}, nil, nil
	}

	edges := Edges(configs)

	order, err := topoSort(len(configs), edges)
	if err != nil {
		if cycle, ok := err.(*CycleError); ok {
			for _, idx := range cycle.Remaining {
				cycle.Names = append(cycle.Names, configs[idx].PackageName)
			}
		}
		return nil, nil, codes.Wrap(err, codes.Cycle, "cannot order configurations")
	}

	inChain := make(map[int]bool)
	for _, e := range edges {
		inChain[e.Dependent] = true
		inChain[e.DependsOn] = true
	}

	var chained []int
	for _, idx := range order {
		if inChain[idx] {
			chained = append(chained, idx)
		} else {
			independent = append(independent, idx)
		}
	}

	if len(chained) == 0 {
		return independent, nil, nil
	}

	if !o.components {
		return independent, [][]int{chained}, nil
	}

	return independent, components(len(configs), edges, chained), nil
}

// topoSort orders n nodes so every provider precedes its dependents, using
// Kahn's algorithm with a FIFO queue seeded in index order
func topoSort(n int, edges []Edge) ([]int, error) {
	inDegree := make([]int, n)
	dependents := make([][]int, n)

	for _, e := range edges {
		dependents[e.DependsOn] = append(dependents[e.DependsOn], e.Dependent)
		inDegree[e.Dependent]++
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, d := range dependents[node] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) != n {
		cycle := &CycleError{}
		for i := 0; i < n; i++ {
			if inDegree[i] > 0 {
				cycle.Remaining = append(cycle.Remaining, i)
			}
		}
		return nil, cycle
	}

	return order, nil
}

// components splits the topologically ordered chained nodes into weakly
// connected components, ordered by their smallest index
func components(n int, edges []Edge, chained []int) [][]int {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for _, e := range edges {
		a, b := find(e.Dependent), find(e.DependsOn)
		if a == b {
			continue
		}
		// Keep the smallest index as the root
		if a < b {
			parent[b] = a
		} else {
			parent[a] = b
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for _, idx := range chained {
		root := find(idx)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], idx)
	}

	sort.Ints(roots)

	groups := make([][]int, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}

	return groups
}
