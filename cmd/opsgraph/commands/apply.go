package commands

import (
	"github.com/spf13/cobra"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/handlers"
)

// Apply returns the command for bringing declared resources to their
// desired state.
//
// Optional flags:
//
//	--config, -c: path to the configuration file (default: opsgraph.config.yaml)
//	--verbose, -v: enable debug logging
//	--metrics-listen: serve Prometheus metrics on this address during the run
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token
func Apply() *cobra.Command {
	var configPath string
	var verbose bool
	var metricsListen string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update declared resources",
		Long: `Bring every declared resource to its desired state.

Resources are applied in dependency order, independent resources in
parallel. A failed resource skips its dependents but never unrelated
resources; re-running apply resumes from recorded state.

Examples:
  # Apply using opsgraph.config.yaml in the current directory
  opsgraph apply

  # Apply with a specific config file
  opsgraph apply -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath, verbose, metricsListen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: opsgraph.config.yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address during the run (e.g. 127.0.0.1:9090)")

	return cmd
}
