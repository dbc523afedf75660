package provision

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// seedRecords writes a full set of records as a completed deploy would.
func seedRecords(d *testDeps, unit string) {
	for field, value := range map[string]string{
		FieldAgentID:      "my_agent-abc123",
		FieldAgentARN:     testARN,
		FieldAgentName:    "demo_agent",
		FieldUserPoolID:   "us-west-2_pool1",
		FieldClientID:     "client1",
		FieldDiscoveryURL: deriveDiscoveryURL("us-west-2", "us-west-2_pool1"),
		FieldECRRepoName:  "bedrock-agentcore-" + unit,
		FieldRoleName:     "agentcore-" + unit + "-role",
	} {
		d.params.values[recordKey(unit, field)] = value
	}
	d.secrets.values[credentialSecretName(unit)] = "{}"
}

func TestDestroyFullUnit(t *testing.T) {
	p, d := newTestProvisioner()
	seedRecords(d, "demo-agent")
	d.registry.images = []ImageID{{Digest: "sha256:aaa", Tag: "latest"}}

	if err := p.Destroy(context.Background(), "demo-agent"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if len(d.runtime.deleted) != 1 || d.runtime.deleted[0] != "my_agent-abc123" {
		t.Errorf("runtimes deleted = %v, want the recorded agent id", d.runtime.deleted)
	}
	if len(d.registry.deletedIDs) != 1 {
		t.Errorf("images deleted = %d, want 1", len(d.registry.deletedIDs))
	}
	if len(d.registry.deletedRepos) != 1 || d.registry.deletedRepos[0] != "bedrock-agentcore-demo-agent" {
		t.Errorf("repos deleted = %v, want the recorded repo", d.registry.deletedRepos)
	}
	if len(d.identity.poolsDeleted) != 1 || d.identity.poolsDeleted[0] != "us-west-2_pool1" {
		t.Errorf("pools deleted = %v, want the recorded pool", d.identity.poolsDeleted)
	}
	if d.secrets.deletes != 1 {
		t.Errorf("secret deletes = %d, want 1", d.secrets.deletes)
	}
	if len(d.params.values) != 0 {
		t.Errorf("records remaining = %v, want none", d.params.values)
	}
}

func TestDestroyPartialState(t *testing.T) {
	p, d := newTestProvisioner()
	// Only the pool was ever recorded; runtime and registry steps must
	// skip cleanly.
	d.params.values[recordKey("demo-agent", FieldUserPoolID)] = "us-west-2_pool1"

	if err := p.Destroy(context.Background(), "demo-agent"); err != nil {
		t.Fatalf("Destroy of partial state: %v", err)
	}
	if len(d.runtime.deleted) != 0 {
		t.Errorf("runtimes deleted = %v, want none without a record", d.runtime.deleted)
	}
	if len(d.identity.poolsDeleted) != 1 {
		t.Errorf("pools deleted = %v, want the one recorded pool", d.identity.poolsDeleted)
	}
}

func TestDestroyNothingRecorded(t *testing.T) {
	p, _ := newTestProvisioner()
	if err := p.Destroy(context.Background(), "ghost"); err != nil {
		t.Fatalf("Destroy of unknown unit: %v", err)
	}
}

func TestDestroyCountsFailuresAndContinues(t *testing.T) {
	p, d := newTestProvisioner()
	seedRecords(d, "demo-agent")
	d.runtime.deleteErr = fmt.Errorf("injected runtime failure")
	d.identity.deleteErr = fmt.Errorf("injected pool failure")

	err := p.Destroy(context.Background(), "demo-agent")
	if err == nil {
		t.Fatal("Destroy succeeded despite two failing steps")
	}
	if !strings.Contains(err.Error(), "2 error(s)") {
		t.Errorf("err = %v, want 2 counted failures", err)
	}
	// Later steps still ran.
	if len(d.registry.deletedRepos) != 1 {
		t.Error("registry teardown skipped after earlier failure")
	}
	if d.secrets.deletes != 1 {
		t.Error("secret teardown skipped after earlier failure")
	}
	if len(d.params.values) != 0 {
		t.Error("record teardown skipped after earlier failure")
	}
}

func TestDestroySecretAndRegistryFailuresCounted(t *testing.T) {
	p, d := newTestProvisioner()
	seedRecords(d, "demo-agent")
	d.secrets.err = fmt.Errorf("injected secret failure")
	d.registry.listErr = fmt.Errorf("injected list failure")

	err := p.Destroy(context.Background(), "demo-agent")
	if err == nil {
		t.Fatal("Destroy succeeded despite failing steps")
	}
	if !strings.Contains(err.Error(), "2 error(s)") {
		t.Errorf("err = %v, want 2 counted failures", err)
	}
	// The pool and records still came down.
	if len(d.identity.poolsDeleted) != 1 {
		t.Error("pool teardown skipped after earlier failures")
	}
	if len(d.params.values) != 0 {
		t.Error("record teardown skipped after earlier failures")
	}
}

func TestDestroyRecordDeleteFailureCounted(t *testing.T) {
	p, d := newTestProvisioner()
	seedRecords(d, "demo-agent")
	d.params.failDel = FieldClientID

	err := p.Destroy(context.Background(), "demo-agent")
	if err == nil {
		t.Fatal("Destroy succeeded despite a record delete failure")
	}
	if !strings.Contains(err.Error(), "1 error(s)") {
		t.Errorf("err = %v, want 1 counted failure", err)
	}
	// Every other record was still removed.
	if len(d.params.values) != 1 {
		t.Errorf("records remaining = %v, want only the failing key", d.params.values)
	}
}

func TestDestroyRuntimeStillPresentIsNotFailure(t *testing.T) {
	p, d := newTestProvisioner()
	seedRecords(d, "demo-agent")
	// The probe keeps reporting the runtime for longer than the bound.
	d.runtime.existsLeft = maxGoneAttempts + 5

	if err := p.Destroy(context.Background(), "demo-agent"); err != nil {
		t.Fatalf("Destroy: %v, want slow async deletion tolerated", err)
	}
}
