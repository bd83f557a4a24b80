package commands

import (
	"github.com/spf13/cobra"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/handlers"
)

// Destroy returns the command for tearing down everything recorded in state.
func Destroy() *cobra.Command {
	var configPath string
	var verbose bool
	var force bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete all tracked resources",
		Long: `Delete every resource recorded in state, in reverse dependency order.

Destroy stops at the first failure so partially deleted dependencies never
strand their dependents.

Examples:
  # Destroy with confirmation
  opsgraph destroy

  # Destroy without prompting
  opsgraph destroy --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, verbose, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: opsgraph.config.yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}
