package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports that the declared stage edges contain a cycle. The
// topology is fixed at build time, so this is always a programming defect,
// but the graph still detects it defensively.
type CycleError struct {
	Remaining []StageName
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Remaining))
	for i, n := range e.Remaining {
		names[i] = string(n)
	}
	sort.Strings(names)
	return fmt.Sprintf("stage graph contains a cycle involving: %s", strings.Join(names, ", "))
}

// Graph is a fixed DAG of stage definitions with its topological order
// computed once at construction. The order is deterministic: ties are broken
// by declaration order, so the same topology always yields the same order.
type Graph struct {
	defs  []StageDef
	byKey map[StageName]StageDef
	order []StageName
}

// NewGraph validates the stage definitions (unique names, known
// dependencies), computes the topological order, and fails with a
// *CycleError if the edges are cyclic.
func NewGraph(defs []StageDef) (*Graph, error) {
	byKey := make(map[StageName]StageDef, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if d.Fn == nil {
			return nil, fmt.Errorf("stage %s has no function", d.Name)
		}
		if _, dup := byKey[d.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name %s", d.Name)
		}
		byKey[d.Name] = d
	}
	for _, d := range defs {
		for _, dep := range d.After {
			if _, known := byKey[dep]; !known {
				return nil, fmt.Errorf("stage %s depends on unknown stage %s", d.Name, dep)
			}
		}
	}

	order, err := topoSort(defs)
	if err != nil {
		return nil, err
	}

	return &Graph{defs: defs, byKey: byKey, order: order}, nil
}

// Order returns the stage names in execution order.
func (g *Graph) Order() []StageName {
	out := make([]StageName, len(g.order))
	copy(out, g.order)
	return out
}

// Stage returns the definition for a stage name.
func (g *Graph) Stage(name StageName) (StageDef, bool) {
	d, ok := g.byKey[name]
	return d, ok
}

// Len returns the number of stages.
func (g *Graph) Len() int { return len(g.defs) }

// topoSort is Kahn's algorithm with deterministic tie-breaking: among ready
// stages, the one declared first runs first.
func topoSort(defs []StageDef) ([]StageName, error) {
	indegree := make(map[StageName]int, len(defs))
	dependents := make(map[StageName][]StageName, len(defs))
	declIndex := make(map[StageName]int, len(defs))

	for i, d := range defs {
		declIndex[d.Name] = i
		indegree[d.Name] += 0
		for _, dep := range d.After {
			indegree[d.Name]++
			dependents[dep] = append(dependents[dep], d.Name)
		}
	}

	var ready []StageName
	for _, d := range defs {
		if indegree[d.Name] == 0 {
			ready = append(ready, d.Name)
		}
	}

	order := make([]StageName, 0, len(defs))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return declIndex[ready[i]] < declIndex[ready[j]] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(defs) {
		var remaining []StageName
		for name, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, name)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}

	return order, nil
}
