package provision

import "encoding/json"

// Record field constants. Each maps to one SSM parameter under the
// unit's /{unit}/runtime/ namespace.
const (
	FieldAgentID      = "agent_id"
	FieldAgentARN     = "agent_arn"
	FieldAgentName    = "agent_name"
	FieldUserPoolID   = "user_pool_id"
	FieldClientID     = "client_id"
	FieldDiscoveryURL = "discovery_url"
	FieldECRRepoName  = "ecr_repo_name"
	FieldRoleName     = "agent_role_name"
)

// recordFields lists every record field a unit may own, in the order
// they are deleted during teardown.
var recordFields = []string{
	FieldAgentID,
	FieldAgentARN,
	FieldAgentName,
	FieldUserPoolID,
	FieldClientID,
	FieldDiscoveryURL,
	FieldECRRepoName,
	FieldRoleName,
}

// recordKey returns the parameter store key for one record field.
func recordKey(unit, field string) string {
	return "/" + unit + "/runtime/" + field
}

// credentialSecretName returns the secret store key holding the unit's
// credential bundle.
func credentialSecretName(unit string) string {
	return unit + "/cognito/credentials"
}

// CredentialBundle is the JSON blob stored in the secret store whenever
// the user pool is (re)configured. It is always written whole, never
// field by field.
type CredentialBundle struct {
	PoolID      string `json:"pool_id"`
	ClientID    string `json:"client_id"`
	BearerToken string `json:"bearer_token"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// Encode serializes the bundle for storage.
func (b *CredentialBundle) Encode() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
