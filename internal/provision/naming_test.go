package provision

import (
	"strings"
	"testing"
)

func TestDerivedNames(t *testing.T) {
	spec := &UnitSpec{Name: "demo-agent"}

	if got := spec.RuntimeName(); got != "demo_agent" {
		t.Errorf("RuntimeName = %q, want hyphens folded to underscores", got)
	}
	if got := spec.PoolName(); got != "demo-agent-user-pool" {
		t.Errorf("PoolName = %q", got)
	}
	if got := spec.RoleName(); got != "agentcore-demo-agent-role" {
		t.Errorf("RoleName = %q", got)
	}
	if got := spec.RepoName(); got != "bedrock-agentcore-demo-agent" {
		t.Errorf("RepoName = %q", got)
	}
}

func TestValidateAWSName(t *testing.T) {
	valid := []string{"a", "agent_1", "A_long_name_with_underscores"}
	for _, name := range valid {
		if err := validateAWSName(name, "agent_runtime"); err != nil {
			t.Errorf("validateAWSName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "1agent", "has-hyphen", "has space", strings.Repeat("a", 49)}
	for _, name := range invalid {
		if err := validateAWSName(name, "agent_runtime"); err == nil {
			t.Errorf("validateAWSName(%q) = nil, want error", name)
		}
	}
}

func TestRegistryURI(t *testing.T) {
	got := registryURI("123456789012", "us-west-2", "bedrock-agentcore-demo")
	want := "123456789012.dkr.ecr.us-west-2.amazonaws.com/bedrock-agentcore-demo"
	if got != want {
		t.Errorf("registryURI = %q, want %q", got, want)
	}
}

func TestRecordKey(t *testing.T) {
	if got := recordKey("demo", FieldAgentID); got != "/demo/runtime/agent_id" {
		t.Errorf("recordKey = %q", got)
	}
	if got := credentialSecretName("demo"); got != "demo/cognito/credentials" {
		t.Errorf("credentialSecretName = %q", got)
	}
}
