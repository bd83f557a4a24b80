// Package resolve evaluates attribute expressions against the outputs of
// already-applied resources.
//
// A Resolver lives for exactly one apply cycle. Attribute objects are
// memoized per resource, so resolving the same resource twice in one cycle
// returns the first result rather than re-evaluating.
package resolve

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/resource"
)

// Error reports a failed expression evaluation. It is fatal to the owning
// resource and its dependents.
type Error struct {
	Resource  string
	Attribute string
	Expr      string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resource %q attribute %q (%s): %v", e.Resource, e.Attribute, e.Expr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsContractViolation reports whether err is a reference to a resource that
// has not applied yet. That is a scheduler ordering bug, not a user error.
func IsContractViolation(err error) bool {
	return errors.Is(err, resource.ErrNotApplied)
}

// Resolver evaluates resource attributes for one apply cycle.
type Resolver struct {
	vars map[string]cty.Value

	mu       sync.RWMutex
	outputs  map[string]cty.Value
	resolved map[string]cty.Value
}

// NewResolver creates a resolver over the set's bound variable values.
func NewResolver(set *resource.Set) *Resolver {
	return &Resolver{
		vars:     set.Values,
		outputs:  make(map[string]cty.Value),
		resolved: make(map[string]cty.Value),
	}
}

// Publish records the outputs of a resource that reached applied status,
// making them visible to later resolutions. The scheduler calls this before
// marking the resource terminal, so dependents never observe a gap.
func (r *Resolver) Publish(name string, outputs cty.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[name] = outputs
}

// Output implements resource.Environment.
func (r *Resolver) Output(name string) (cty.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.outputs[name]
	return v, ok
}

// Variable implements resource.Environment.
func (r *Resolver) Variable(name string) (cty.Value, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// ResolveAttrs evaluates every attribute of a node into a single object
// value. The result is memoized: a second call for the same node within
// the cycle returns the cached object.
func (r *Resolver) ResolveAttrs(node *resource.Node) (cty.Value, error) {
	r.mu.RLock()
	cached, ok := r.resolved[node.Name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	names := make([]string, 0, len(node.Attrs))
	for name := range node.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	vals := make(map[string]cty.Value, len(names))
	for _, attr := range names {
		expr := node.Attrs[attr]
		v, err := expr.Eval(r)
		if err != nil {
			return cty.NilVal, &Error{
				Resource:  node.Name,
				Attribute: attr,
				Expr:      expr.String(),
				Err:       err,
			}
		}
		vals[attr] = v
	}

	obj := cty.EmptyObjectVal
	if len(vals) > 0 {
		obj = cty.ObjectVal(vals)
	}

	r.mu.Lock()
	r.resolved[node.Name] = obj
	r.mu.Unlock()
	return obj, nil
}
