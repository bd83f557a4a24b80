package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/opsgraph/opsgraph/internal/graph"
	"github.com/opsgraph/opsgraph/internal/resource"
)

// Graph prints the declared resources in apply order, or the whole graph in
// Graphviz DOT form. It never touches state or the provider.
func Graph(ctx context.Context, w io.Writer, configPath string, dot bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	set, err := loadDeclaration(cfg)
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	g, err := graph.Build(set, registry)
	if err != nil {
		return err
	}

	if dot {
		return writeDOT(w, g.Order, g.Nodes, g.Dependencies)
	}

	for i, name := range g.Order {
		node := g.Nodes[name]
		deps := append([]string(nil), g.Dependencies[name]...)
		sort.Strings(deps)
		if len(deps) == 0 {
			fmt.Fprintf(w, "%3d. %s (%s)\n", i+1, name, node.Kind)
			continue
		}
		fmt.Fprintf(w, "%3d. %s (%s) <- %s\n", i+1, name, node.Kind, joinNames(deps))
	}
	return nil
}

func writeDOT(w io.Writer, order []string, nodes map[string]*resource.Node, deps map[string][]string) error {
	fmt.Fprintln(w, "digraph opsgraph {")
	fmt.Fprintln(w, `  rankdir = "LR";`)
	for _, name := range order {
		fmt.Fprintf(w, "  %q [label=\"%s\\n(%s)\"];\n", name, name, nodes[name].Kind)
	}
	for _, name := range order {
		parents := append([]string(nil), deps[name]...)
		sort.Strings(parents)
		for _, parent := range parents {
			fmt.Fprintf(w, "  %q -> %q;\n", parent, name)
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
