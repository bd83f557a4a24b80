// Package graph builds the dependency DAG from a declaration set.
//
// Edges come from two sources: explicit depends_on entries and references
// between resource attributes (one resource's output used as another's
// input). Building is a pure function of the declaration set; it performs
// no resolution and no execution.
package graph

import (
	"fmt"
	"sort"

	"github.com/opsgraph/opsgraph/internal/resource"
)

// Catalog exposes the output schema of known resource kinds so that
// reference paths can be checked statically. A nil Catalog skips path
// checks; unknown kinds are always skipped.
type Catalog interface {
	// Outputs returns the output attribute names of a kind. The second
	// return is false when the kind is not registered.
	Outputs(kind string) ([]string, bool)
}

// Graph is the compiled dependency DAG of a declaration set.
type Graph struct {
	// Nodes keyed by logical name.
	Nodes map[string]*resource.Node

	// Order is a topological order, dependencies first. Ties are broken
	// by declaration order so runs are reproducible.
	Order []string

	// Dependencies maps a name to the names it depends on (its parents).
	Dependencies map[string][]string

	// Dependents maps a name to the names that depend on it.
	Dependents map[string][]string
}

// Build compiles a declaration set into a DAG, or fails with
// DuplicateResourceError, UnknownReferenceError, or CycleError. catalog may
// be nil to skip output-path validation.
func Build(set *resource.Set, catalog Catalog) (*Graph, error) {
	g := &Graph{
		Nodes:        make(map[string]*resource.Node, len(set.Resources)),
		Dependencies: make(map[string][]string, len(set.Resources)),
		Dependents:   make(map[string][]string, len(set.Resources)),
	}

	declared := make([]string, 0, len(set.Resources))
	for i := range set.Resources {
		node := &set.Resources[i]
		if _, exists := g.Nodes[node.Name]; exists {
			return nil, DuplicateResourceError{Name: node.Name}
		}
		g.Nodes[node.Name] = node
		declared = append(declared, node.Name)
	}

	for _, name := range declared {
		node := g.Nodes[name]
		deps := make(map[string]struct{})

		for _, dep := range node.DependsOn {
			if _, ok := g.Nodes[dep]; !ok {
				return nil, UnknownReferenceError{Resource: name, Target: dep}
			}
			deps[dep] = struct{}{}
		}

		attrNames := make([]string, 0, len(node.Attrs))
		for attr := range node.Attrs {
			attrNames = append(attrNames, attr)
		}
		sort.Strings(attrNames)
		for _, attr := range attrNames {
			for _, ref := range node.Attrs[attr].References() {
				target, ok := g.Nodes[ref.Resource]
				if !ok {
					return nil, UnknownReferenceError{
						Resource:  name,
						Attribute: attr,
						Target:    refTarget(ref),
					}
				}
				if err := checkOutputPath(catalog, target.Kind, ref); err != nil {
					return nil, UnknownReferenceError{
						Resource:  name,
						Attribute: attr,
						Target:    refTarget(ref),
					}
				}
				deps[ref.Resource] = struct{}{}
			}
		}

		if _, self := deps[name]; self {
			return nil, CycleError{Path: []string{name, name}}
		}

		ordered := make([]string, 0, len(deps))
		for dep := range deps {
			ordered = append(ordered, dep)
		}
		sort.Strings(ordered)
		g.Dependencies[name] = ordered
		for _, dep := range ordered {
			g.Dependents[dep] = append(g.Dependents[dep], name)
		}
	}

	order, err := topoSort(declared, g.Dependencies)
	if err != nil {
		return nil, err
	}
	g.Order = order
	return g, nil
}

func refTarget(ref resource.Ref) string {
	target := ref.Resource
	for _, step := range ref.Path {
		target += "." + step
	}
	return target
}

func checkOutputPath(catalog Catalog, kind string, ref resource.Ref) error {
	if catalog == nil || len(ref.Path) == 0 {
		return nil
	}
	outputs, known := catalog.Outputs(kind)
	if !known {
		return nil
	}
	for _, out := range outputs {
		if out == ref.Path[0] {
			return nil
		}
	}
	return fmt.Errorf("kind %q has no output %q", kind, ref.Path[0])
}

// topoSort produces a dependencies-first order using Kahn's algorithm,
// selecting among ready nodes in declaration order.
func topoSort(declared []string, dependencies map[string][]string) ([]string, error) {
	remaining := make(map[string]int, len(declared))
	for _, name := range declared {
		remaining[name] = len(dependencies[name])
	}

	emitted := make(map[string]struct{}, len(declared))
	order := make([]string, 0, len(declared))

	for len(order) < len(declared) {
		progressed := false
		for _, name := range declared {
			if _, done := emitted[name]; done {
				continue
			}
			if remaining[name] != 0 {
				continue
			}
			emitted[name] = struct{}{}
			order = append(order, name)
			progressed = true
			for _, other := range declared {
				if _, done := emitted[other]; done {
					continue
				}
				for _, dep := range dependencies[other] {
					if dep == name {
						remaining[other]--
					}
				}
			}
		}
		if !progressed {
			return nil, CycleError{Path: findCycle(declared, dependencies, emitted)}
		}
	}
	return order, nil
}

// findCycle walks the unemitted subgraph depth-first to name the members of
// a cycle for the error message.
func findCycle(declared []string, dependencies map[string][]string, emitted map[string]struct{}) []string {
	const (
		stateNew uint8 = iota
		stateVisiting
		stateDone
	)

	state := make(map[string]uint8, len(declared))
	var stack []string
	stackPos := make(map[string]int)

	var cycle []string
	var dfs func(name string) bool
	dfs = func(name string) bool {
		state[name] = stateVisiting
		stackPos[name] = len(stack)
		stack = append(stack, name)

		for _, dep := range dependencies[name] {
			if _, done := emitted[dep]; done {
				continue
			}
			switch state[dep] {
			case stateVisiting:
				pos := stackPos[dep]
				cycle = append([]string(nil), stack[pos:]...)
				cycle = append(cycle, dep)
				return true
			case stateNew:
				if dfs(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(stackPos, name)
		state[name] = stateDone
		return false
	}

	for _, name := range declared {
		if _, done := emitted[name]; done {
			continue
		}
		if state[name] == stateNew && dfs(name) {
			return cycle
		}
	}
	return nil
}
