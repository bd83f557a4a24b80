package resource

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Environment supplies the values an expression may reference during
// evaluation: the outputs of already-applied resources and the bound
// variable values of the declaration set.
type Environment interface {
	// Output returns the outputs object of the named resource. The second
	// return is false while the resource has not reached applied status.
	Output(resource string) (cty.Value, bool)

	// Variable returns the bound value of a declared variable.
	Variable(name string) (cty.Value, bool)
}

// Expr is an attribute expression. Evaluation is pure: the same expression
// against the same environment always yields the same value.
type Expr interface {
	// Eval produces the concrete value of the expression.
	Eval(env Environment) (cty.Value, error)

	// References returns the resource references the expression uses.
	References() []Ref

	// String renders the expression in declaration syntax, for error
	// reporting.
	String() string
}

// Literal is a constant scalar, already a concrete value.
type Literal struct {
	Value cty.Value
}

func (l Literal) Eval(Environment) (cty.Value, error) { return l.Value, nil }

func (l Literal) References() []Ref { return nil }

func (l Literal) String() string {
	if l.Value.Type() == cty.String && l.Value.IsKnown() && !l.Value.IsNull() {
		return fmt.Sprintf("%q", l.Value.AsString())
	}
	return fmt.Sprintf("%v", l.Value)
}

// List is an ordered collection of sub-expressions.
type List struct {
	Elems []Expr
}

func (l List) Eval(env Environment) (cty.Value, error) {
	if len(l.Elems) == 0 {
		return cty.EmptyTupleVal, nil
	}
	vals := make([]cty.Value, len(l.Elems))
	for i, e := range l.Elems {
		v, err := e.Eval(env)
		if err != nil {
			return cty.NilVal, err
		}
		vals[i] = v
	}
	return cty.TupleVal(vals), nil
}

func (l List) References() []Ref {
	var refs []Ref
	for _, e := range l.Elems {
		refs = append(refs, e.References()...)
	}
	return refs
}

func (l List) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Map is a collection of named sub-expressions.
type Map struct {
	Entries map[string]Expr
}

func (m Map) Eval(env Environment) (cty.Value, error) {
	if len(m.Entries) == 0 {
		return cty.EmptyObjectVal, nil
	}
	vals := make(map[string]cty.Value, len(m.Entries))
	for k, e := range m.Entries {
		v, err := e.Eval(env)
		if err != nil {
			return cty.NilVal, err
		}
		vals[k] = v
	}
	return cty.ObjectVal(vals), nil
}

func (m Map) References() []Ref {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	// Sorted for stable edge inference.
	sortStrings(keys)
	var refs []Ref
	for _, k := range keys {
		refs = append(refs, m.Entries[k].References()...)
	}
	return refs
}

func (m Map) String() string {
	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sortStrings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %s", k, m.Entries[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Ref references an output of another resource, written
// `<resource>.<path>` in declaration syntax.
type Ref struct {
	Resource string
	Path     []string
}

func (r Ref) Eval(env Environment) (cty.Value, error) {
	outputs, ok := env.Output(r.Resource)
	if !ok {
		// The scheduler orders operations so that a reference is only
		// evaluated after its target applied. Reaching this is a bug.
		return cty.NilVal, fmt.Errorf("%w: %s", ErrNotApplied, r.Resource)
	}
	v := outputs
	for _, step := range r.Path {
		if !v.Type().IsObjectType() || !v.Type().HasAttribute(step) {
			return cty.NilVal, fmt.Errorf("resource %q has no output %q", r.Resource, strings.Join(r.Path, "."))
		}
		v = v.GetAttr(step)
	}
	return v, nil
}

func (r Ref) References() []Ref { return []Ref{r} }

func (r Ref) String() string {
	return "${" + strings.Join(append([]string{r.Resource}, r.Path...), ".") + "}"
}

// VarRef references a declared variable, written `var.<name>`.
type VarRef struct {
	Name string
}

func (v VarRef) Eval(env Environment) (cty.Value, error) {
	val, ok := env.Variable(v.Name)
	if !ok {
		return cty.NilVal, fmt.Errorf("undeclared variable %q", v.Name)
	}
	return val, nil
}

func (v VarRef) References() []Ref { return nil }

func (v VarRef) String() string { return "${var." + v.Name + "}" }

// Call applies one of the built-in functions to sub-expressions.
type Call struct {
	Func string
	Args []Expr
}

func (c Call) Eval(env Environment) (cty.Value, error) {
	fn, ok := functions[c.Func]
	if !ok {
		return cty.NilVal, fmt.Errorf("unknown function %q", c.Func)
	}
	args := make([]cty.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(env)
		if err != nil {
			return cty.NilVal, err
		}
		args[i] = v
	}
	v, err := fn(args)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%s: %w", c.Func, err)
	}
	return v, nil
}

func (c Call) References() []Ref {
	var refs []Ref
	for _, a := range c.Args {
		refs = append(refs, a.References()...)
	}
	return refs
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return "${" + c.Func + "(" + strings.Join(parts, ", ") + ")}"
}

// Template concatenates string renderings of its parts, the result of
// `prefix ${expr} suffix` interpolation.
type Template struct {
	Parts []Expr
}

func (t Template) Eval(env Environment) (cty.Value, error) {
	var b strings.Builder
	for _, p := range t.Parts {
		v, err := p.Eval(env)
		if err != nil {
			return cty.NilVal, err
		}
		s, err := stringify(v)
		if err != nil {
			return cty.NilVal, err
		}
		b.WriteString(s)
	}
	return cty.StringVal(b.String()), nil
}

func (t Template) References() []Ref {
	var refs []Ref
	for _, p := range t.Parts {
		refs = append(refs, p.References()...)
	}
	return refs
}

func (t Template) String() string {
	var b strings.Builder
	for _, p := range t.Parts {
		if lit, ok := p.(Literal); ok && lit.Value.Type() == cty.String {
			b.WriteString(lit.Value.AsString())
			continue
		}
		b.WriteString(p.String())
	}
	return fmt.Sprintf("%q", b.String())
}
