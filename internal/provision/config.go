package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Protocol selects the runtime behavior variant configured at launch.
const (
	// ProtocolAgent hosts a generic agent entrypoint.
	ProtocolAgent = "agent"
	// ProtocolMCP hosts an MCP tool server behind the runtime's MCP
	// protocol bridge.
	ProtocolMCP = "mcp"
)

// entrypointExt is the only recognized entrypoint file extension.
const entrypointExt = ".py"

// manifestName is the dependency manifest expected alongside the
// entrypoint.
const manifestName = "requirements.txt"

// UnitSpec describes one deployment unit as declared by the caller. It
// is not persisted; only the derived resource identifiers are.
type UnitSpec struct {
	// Name is the unit name used to namespace every derived resource
	// name and store key.
	Name string
	// Entrypoint is the path to the unit's entrypoint source file.
	Entrypoint string
	// Protocol is one of ProtocolAgent or ProtocolMCP. Inferred from
	// the entrypoint path when left empty.
	Protocol string
}

// NewUnitSpec validates the caller inputs and infers the protocol kind
// when it was not given explicitly.
func NewUnitSpec(entrypoint, name, protocol string) (*UnitSpec, error) {
	if name == "" {
		return nil, &ProvisionError{
			Category:  ErrCategoryConfiguration,
			Operation: "validate",
			Resource:  "unit",
			Message:   "unit name must not be empty",
		}
	}

	spec := &UnitSpec{Name: name, Entrypoint: entrypoint, Protocol: protocol}
	if err := spec.validateEntrypoint(); err != nil {
		return nil, err
	}

	if spec.Protocol == "" {
		spec.Protocol = inferProtocol(entrypoint)
	}
	if spec.Protocol != ProtocolAgent && spec.Protocol != ProtocolMCP {
		return nil, &ProvisionError{
			Category:    ErrCategoryConfiguration,
			Operation:   "validate",
			Resource:    "protocol",
			Message:     fmt.Sprintf("unknown protocol %q", spec.Protocol),
			Remediation: fmt.Sprintf("use %q or %q", ProtocolAgent, ProtocolMCP),
		}
	}

	if err := validateAWSName(spec.RuntimeName(), "agent_runtime"); err != nil {
		return nil, err
	}
	return spec, nil
}

// validateEntrypoint checks that the entrypoint file exists with a
// recognized extension and that the dependency manifest sits alongside
// it. Both are fatal preconditions.
func (s *UnitSpec) validateEntrypoint() error {
	if filepath.Ext(s.Entrypoint) != entrypointExt {
		return &ProvisionError{
			Category:  ErrCategoryConfiguration,
			Operation: "validate",
			Resource:  "entrypoint",
			Message:   fmt.Sprintf("entrypoint %q must end in %s", s.Entrypoint, entrypointExt),
		}
	}
	if _, err := os.Stat(s.Entrypoint); err != nil {
		return &ProvisionError{
			Category:  ErrCategoryConfiguration,
			Operation: "validate",
			Resource:  "entrypoint",
			Message:   fmt.Sprintf("entrypoint %q not found", s.Entrypoint),
			Cause:     err,
		}
	}

	manifest := filepath.Join(s.WorkDir(), manifestName)
	if _, err := os.Stat(manifest); err != nil {
		return &ProvisionError{
			Category:    ErrCategoryConfiguration,
			Operation:   "validate",
			Resource:    "manifest",
			Message:     fmt.Sprintf("dependency manifest %q not found", manifest),
			Remediation: fmt.Sprintf("create a %s next to the entrypoint", manifestName),
			Cause:       err,
		}
	}
	return nil
}

// WorkDir returns the directory the toolchain runs in, derived from the
// entrypoint path.
func (s *UnitSpec) WorkDir() string {
	return filepath.Dir(s.Entrypoint)
}

// inferProtocol picks the protocol kind from the entrypoint path. Paths
// that mention MCP get the tool-bridge variant; everything else is a
// generic agent.
func inferProtocol(entrypoint string) string {
	base := strings.ToLower(filepath.Base(entrypoint))
	if strings.HasSuffix(base, "_mcp"+entrypointExt) {
		return ProtocolMCP
	}
	if strings.Contains(strings.ToLower(entrypoint), "mcp") {
		return ProtocolMCP
	}
	return ProtocolAgent
}

// regionFromEnv returns the region from the conventional environment
// variables, preferring AWS_REGION.
func regionFromEnv() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return os.Getenv("AWS_DEFAULT_REGION")
}
