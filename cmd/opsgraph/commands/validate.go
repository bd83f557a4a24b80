package commands

import (
	"github.com/spf13/cobra"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/handlers"
)

// Validate returns the command for static declaration checking.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the declaration without applying anything",
		Long: `Parse the declaration, build the dependency graph and verify every
reference against the registered resource kinds. No remote call is made
and no state is touched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: opsgraph.config.yaml)")

	return cmd
}
