package commands

import (
	"github.com/spf13/cobra"

	"github.com/opsgraph/opsgraph/cmd/opsgraph/handlers"
)

// Init returns the command that scaffolds a new project interactively.
func Init() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a starter declaration and config interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context())
		},
	}
}
