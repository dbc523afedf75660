package provision

import (
	"fmt"
	"regexp"
	"strings"
)

// awsNamePattern is the regex pattern for valid AgentCore runtime
// names. Names must start with a letter, contain only letters, digits,
// and underscores, and be at most 48 characters long.
const awsNamePattern = `^[a-zA-Z][a-zA-Z0-9_]{0,47}$`

// awsNameRe is the compiled regex for validating runtime names.
var awsNameRe = regexp.MustCompile(awsNamePattern)

// validateAWSName checks whether name is a valid AWS resource name and
// returns an error describing the problem if not.
func validateAWSName(name, resourceType string) error {
	if !awsNameRe.MatchString(name) {
		return &ProvisionError{
			Category:  ErrCategoryConfiguration,
			Operation: "validate",
			Resource:  resourceType,
			Message: fmt.Sprintf(
				"derived name %q is invalid: must match %s", name, awsNamePattern,
			),
		}
	}
	return nil
}

// RuntimeName returns the AgentCore runtime name for the unit. Hyphens
// are not legal in runtime names, so they are folded to underscores.
func (s *UnitSpec) RuntimeName() string {
	return strings.ReplaceAll(s.Name, "-", "_")
}

// PoolName returns the derived Cognito user pool name.
func (s *UnitSpec) PoolName() string {
	return s.Name + "-user-pool"
}

// RoleName returns the derived execution role name. The role itself is
// created by a separate provisioning layer and only referenced here.
func (s *UnitSpec) RoleName() string {
	return "agentcore-" + s.Name + "-role"
}

// RepoName returns the derived ECR repository name.
func (s *UnitSpec) RepoName() string {
	return "bedrock-agentcore-" + s.Name
}

// registryURI returns the deterministic ECR repository URI for the
// account, region, and repository name.
func registryURI(account, region, repo string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/%s", account, region, repo)
}

// runtimeLogGroup returns the CloudWatch log group the runtime writes
// to, ensured before launch.
func runtimeLogGroup(unit string) string {
	return "/aws/bedrock-agentcore/runtimes/" + unit
}
