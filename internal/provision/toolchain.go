package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
)

// toolchainBinary is the launch tool invoked for configure, launch, and
// status. Its output format is not a stable contract; see extract.go.
const toolchainBinary = "agentcore"

// ConfigureOptions carries the external references the runtime is
// configured with.
type ConfigureOptions struct {
	RoleARN    string
	RepoURI    string
	Authorizer *AuthorizerConfig
}

// Toolchain abstracts the external runtime tooling. Configure and
// Launch mutate; Status is a read returning the raw response text for
// the readiness state machine.
type Toolchain interface {
	Configure(ctx context.Context, spec *UnitSpec, opts ConfigureOptions) error
	Launch(ctx context.Context, spec *UnitSpec) (string, error)
	Status(ctx context.Context, spec *UnitSpec) (string, error)
}

// execToolchain implements Toolchain by shelling out to the launch
// tool from the entrypoint's directory.
type execToolchain struct {
	// run executes the command and returns its combined output.
	// Replaceable in tests.
	run func(cmd *exec.Cmd) ([]byte, error)
}

func newExecToolchain() *execToolchain {
	return &execToolchain{
		run: func(cmd *exec.Cmd) ([]byte, error) { return cmd.CombinedOutput() },
	}
}

func (t *execToolchain) Configure(ctx context.Context, spec *UnitSpec, opts ConfigureOptions) error {
	args := []string{
		"configure",
		"--entrypoint", spec.Entrypoint,
		"--name", spec.RuntimeName(),
		"--execution-role", opts.RoleARN,
		"--ecr", opts.RepoURI,
		"--requirements-file", manifestName,
	}
	if opts.Authorizer != nil {
		authJSON, err := encodeAuthorizer(opts.Authorizer)
		if err != nil {
			return err
		}
		args = append(args, "--authorizer-config", authJSON)
	}
	if spec.Protocol == ProtocolMCP {
		args = append(args, "--protocol", "MCP")
	}

	out, err := t.exec(ctx, spec, args...)
	if err != nil {
		return fmt.Errorf("toolchain configure: %w\n%s", err, out)
	}
	return nil
}

func (t *execToolchain) Launch(ctx context.Context, spec *UnitSpec) (string, error) {
	out, err := t.exec(ctx, spec, "launch")
	if err != nil {
		return string(out), fmt.Errorf("toolchain launch: %w\n%s", err, out)
	}
	return string(out), nil
}

func (t *execToolchain) Status(ctx context.Context, spec *UnitSpec) (string, error) {
	out, err := t.exec(ctx, spec, "status")
	if err != nil {
		// A failing status query is a response to classify, not a hard
		// error: the text still drives the state machine.
		return string(out), nil
	}
	return string(out), nil
}

// exec runs the toolchain binary from the unit's working directory.
func (t *execToolchain) exec(ctx context.Context, spec *UnitSpec, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, toolchainBinary, args...)
	cmd.Dir = spec.WorkDir()
	log.Printf("provision: running %s %s in %s", toolchainBinary, args[0], spec.WorkDir())
	return t.run(cmd)
}

// encodeAuthorizer serializes the authorizer descriptor in the shape
// the launch tool expects.
func encodeAuthorizer(a *AuthorizerConfig) (string, error) {
	payload := map[string]any{
		"customJWTAuthorizer": map[string]any{
			"allowedClients": []string{a.ClientID},
			"discoveryUrl":   a.DiscoveryURL,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode authorizer config: %w", err)
	}
	return string(data), nil
}
