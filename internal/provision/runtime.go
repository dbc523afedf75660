package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"
	"github.com/aws/smithy-go"
)

// runtimeControl abstracts the compute-runtime control plane used
// during teardown. The launch/status path goes through the Toolchain
// instead, since the launch tooling owns image build and configuration.
type runtimeControl interface {
	// RuntimeExists probes the runtime by id. After deletion the probe
	// is expected to start failing with not-found.
	RuntimeExists(ctx context.Context, id string) (bool, error)
	// DeleteRuntime requests asynchronous deletion of the runtime.
	// Deleting an absent runtime is not an error.
	DeleteRuntime(ctx context.Context, id string) error
}

// agentCoreControl implements runtimeControl on the Bedrock AgentCore
// control-plane SDK.
type agentCoreControl struct {
	client *bedrockagentcorecontrol.Client
}

func newRuntimeControl(cfg aws.Config) *agentCoreControl {
	return &agentCoreControl{client: bedrockagentcorecontrol.NewFromConfig(cfg)}
}

func (c *agentCoreControl) RuntimeExists(ctx context.Context, id string) (bool, error) {
	_, err := c.client.GetAgentRuntime(ctx, &bedrockagentcorecontrol.GetAgentRuntimeInput{
		AgentRuntimeId: aws.String(id),
	})
	if err != nil {
		if isAPINotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("GetAgentRuntime %q: %w", id, err)
	}
	return true, nil
}

func (c *agentCoreControl) DeleteRuntime(ctx context.Context, id string) error {
	_, err := c.client.DeleteAgentRuntime(ctx, &bedrockagentcorecontrol.DeleteAgentRuntimeInput{
		AgentRuntimeId: aws.String(id),
	})
	if err != nil && !isAPINotFound(err) {
		return fmt.Errorf("DeleteAgentRuntime %q: %w", id, err)
	}
	return nil
}

// isAPINotFound reports whether err is a not-found API error from any
// AWS service.
func isAPINotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException", "NotFoundException", "ResourceNotFound":
			return true
		}
	}
	return false
}
