// Package main implements the agentcore-provision binary, a CLI that
// provisions and tears down AWS Bedrock AgentCore deployment units.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/agentcore-provision/internal/provision"
)

func main() {
	root := &cobra.Command{
		Use:           "agentcore-provision",
		Short:         "Provision and tear down Bedrock AgentCore deployment units",
		Version:       provision.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeployCommand())
	root.AddCommand(newDestroyCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentcore-provision: %v\n", err)
		os.Exit(1)
	}
}
