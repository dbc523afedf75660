package main

import (
	"github.com/spf13/cobra"

	"github.com/AltairaLabs/agentcore-provision/internal/provision"
)

// newDeployCommand builds the deploy subcommand. The protocol argument
// is optional; when omitted it is inferred from the entrypoint path.
func newDeployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <entrypoint-file> <unit-name> [protocol]",
		Short: "Deploy a unit and wait for its runtime to become ready",
		Long: `Deploy provisions everything one deployment unit needs: a Cognito
user pool with an app client and test principal, an ECR repository for
the runtime image, the AgentCore runtime itself, and the SSM parameter
and Secrets Manager records that tie them together. Re-running deploy
for an existing unit reuses its recorded resources.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			protocol := ""
			if len(args) == 3 {
				protocol = args[2]
			}
			spec, err := provision.NewUnitSpec(args[0], args[1], protocol)
			if err != nil {
				return err
			}

			p, err := provision.NewProvisioner(cmd.Context())
			if err != nil {
				return err
			}
			return p.Deploy(cmd.Context(), spec)
		},
	}
}
