package main

import (
	"github.com/spf13/cobra"

	"github.com/AltairaLabs/agentcore-provision/internal/provision"
)

// newDestroyCommand builds the destroy subcommand. The entrypoint
// argument is accepted for symmetry with deploy but teardown only needs
// the unit name; every resource is resolved from the recorded state.
func newDestroyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <entrypoint-file> <unit-name>",
		Short: "Tear down a unit's resources, best-effort",
		Long: `Destroy removes the unit's runtime, ECR repository and images,
Cognito user pool, credential secret, and record keys. Missing
resources are skipped; failures are counted and reported at the end so
one stuck resource does not strand the rest.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := provision.NewProvisioner(cmd.Context())
			if err != nil {
				return err
			}
			return p.Destroy(cmd.Context(), args[1])
		},
	}
}
