package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := &cobra.Command{Use: "agentcore-provision", SilenceUsage: true, SilenceErrors: true}
	cmd.AddCommand(newDeployCommand())
	cmd.AddCommand(newDestroyCommand())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestDeployArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"deploy"}},
		{"one arg", []string{"deploy", "agent.py"}},
		{"too many args", []string{"deploy", "agent.py", "demo", "agent", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestDeployRejectsInvalidUnitBeforeAWS(t *testing.T) {
	// A missing entrypoint fails spec validation before any client is
	// constructed, so this runs without credentials.
	err := execute(t, "deploy", "does-not-exist.py", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entrypoint")
}

func TestDestroyArgValidation(t *testing.T) {
	require.Error(t, execute(t, "destroy"))
	require.Error(t, execute(t, "destroy", "agent.py"))
	require.Error(t, execute(t, "destroy", "agent.py", "demo", "extra"))
}

func TestUnknownCommand(t *testing.T) {
	err := execute(t, "teleport")
	require.Error(t, err)
}
