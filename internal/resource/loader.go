package resource

import (
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// rawSet mirrors the YAML shape of a declaration file.
type rawSet struct {
	Variables map[string]rawVariable `yaml:"variables"`
	Resources []rawResource          `yaml:"resources"`
}

type rawVariable struct {
	Default any `yaml:"default"`
}

type rawResource struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`
	Attributes map[string]any `yaml:"attributes"`
	DependsOn  []string       `yaml:"depends_on"`
}

// LoadFile reads and parses a declaration set from a YAML file.
func LoadFile(path string) (*Set, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	return Load(data)
}

// Load parses a declaration set from YAML bytes.
func Load(data []byte) (*Set, error) {
	var raw rawSet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	set := &Set{
		Variables: make(map[string]Variable, len(raw.Variables)),
	}

	for name, v := range raw.Variables {
		variable := Variable{Name: name}
		if v.Default != nil {
			val, err := literalValue(v.Default)
			if err != nil {
				return nil, fmt.Errorf("variable %q default: %w", name, err)
			}
			variable.Default = val
		}
		set.Variables[name] = variable
	}

	for i, r := range raw.Resources {
		if r.Name == "" {
			return nil, fmt.Errorf("resource at index %d has no name", i)
		}
		if r.Kind == "" {
			return nil, fmt.Errorf("resource %q has no kind", r.Name)
		}
		attrs := make(map[string]Expr, len(r.Attributes))
		for attr, rawVal := range r.Attributes {
			expr, err := ParseValue(rawVal)
			if err != nil {
				return nil, fmt.Errorf("resource %q attribute %q: %w", r.Name, attr, err)
			}
			attrs[attr] = expr
		}
		set.Resources = append(set.Resources, Node{
			Name:      r.Name,
			Kind:      r.Kind,
			Attrs:     attrs,
			DependsOn: append([]string(nil), r.DependsOn...),
		})
	}

	return set, nil
}

// literalValue converts a plain YAML value into a cty value, rejecting
// interpolation. Variable defaults must be concrete.
func literalValue(raw any) (cty.Value, error) {
	expr, err := ParseValue(raw)
	if err != nil {
		return cty.NilVal, err
	}
	if len(expr.References()) > 0 {
		return cty.NilVal, fmt.Errorf("defaults cannot reference resources")
	}
	return expr.Eval(emptyEnv{})
}

type emptyEnv struct{}

func (emptyEnv) Output(string) (cty.Value, bool)   { return cty.NilVal, false }
func (emptyEnv) Variable(string) (cty.Value, bool) { return cty.NilVal, false }
