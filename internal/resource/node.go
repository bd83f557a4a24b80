package resource

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Well-known resource kinds handled by the built-in drivers.
const (
	KindNetwork     = "network"
	KindSSHKey      = "ssh_key"
	KindServerPool  = "server_pool"
	KindCluster     = "cluster"
	KindHelmRelease = "helm_release"
	KindExec        = "exec"
	KindWait        = "wait"
)

// Node is a single declared resource. It is immutable once the graph has
// been built from the declaration set that contains it.
type Node struct {
	// Name is the logical resource name, unique within a declaration set.
	// It is independent of any provider-assigned remote identifier.
	Name string

	// Kind selects the driver that handles this resource.
	Kind string

	// Attrs maps attribute names to their expressions.
	Attrs map[string]Expr

	// DependsOn lists explicit dependencies by logical name, in addition
	// to the edges inferred from attribute references.
	DependsOn []string
}

// References returns every resource reference reachable from the node's
// attributes, in a stable order.
func (n *Node) References() []Ref {
	var refs []Ref
	for _, name := range n.attrNames() {
		refs = append(refs, n.Attrs[name].References()...)
	}
	return refs
}

// attrNames returns the attribute names in sorted order so that derived
// data (edges, resolved objects) is reproducible across runs.
func (n *Node) attrNames() []string {
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variable is a declared input variable with an optional default.
type Variable struct {
	Name    string
	Default cty.Value // cty.NilVal when the variable has no default
}

// Set is a parsed declaration set: the resources plus variable bindings.
type Set struct {
	// Resources in declaration order. Order matters: the scheduler breaks
	// topological ties by declaration order.
	Resources []Node

	// Variables declared by the set, keyed by name.
	Variables map[string]Variable

	// Values holds the effective variable values after merging defaults
	// with caller-supplied overrides.
	Values map[string]cty.Value
}

// BindVariables merges caller-supplied overrides over declared defaults and
// records the effective values. A variable without a default and without an
// override is an error.
func (s *Set) BindVariables(overrides map[string]cty.Value) error {
	s.Values = make(map[string]cty.Value, len(s.Variables))
	for name, v := range s.Variables {
		if override, ok := overrides[name]; ok {
			s.Values[name] = override
			continue
		}
		if v.Default == cty.NilVal {
			return fmt.Errorf("variable %q has no default and no supplied value", name)
		}
		s.Values[name] = v.Default
	}
	for name := range overrides {
		if _, declared := s.Variables[name]; !declared {
			return fmt.Errorf("value supplied for undeclared variable %q", name)
		}
	}
	return nil
}
