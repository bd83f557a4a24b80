package commands

import (
	"github.com/spf13/cobra"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/handlers"
)

// Graph returns the command for inspecting the dependency graph.
func Graph() *cobra.Command {
	var configPath string
	var dot bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the dependency graph",
		Long: `Print the declared resources in apply order, with their dependencies.

With --dot the graph is emitted in Graphviz DOT format:

  opsgraph graph --dot | dot -Tsvg > graph.svg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Graph(cmd.Context(), cmd.OutOrStdout(), configPath, dot)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: opsgraph.config.yaml)")
	cmd.Flags().BoolVar(&dot, "dot", false, "Emit Graphviz DOT instead of a list")

	return cmd
}
