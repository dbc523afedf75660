// Package provision orchestrates the lifecycle of a Bedrock AgentCore
// deployment unit: the Cognito user pool that issues bearer tokens, the
// ECR repository holding the runtime image, the runtime itself, and the
// SSM parameter / Secrets Manager records that tie them together.
//
// Exactly one Provisioner is assumed to run against a given unit name at
// a time; concurrent invocations are not guarded against.
package provision

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Provisioner brings a deployment unit's backing resources into
// existence idempotently and tears them down symmetrically. All AWS
// access goes through the narrow interfaces below so tests can swap in
// in-memory fakes.
type Provisioner struct {
	region  string
	account string

	params    ParamStore
	secrets   SecretStore
	identity  identityClient
	registry  registryClient
	runtime   runtimeControl
	roles     roleClient
	logs      logGroupClient
	toolchain Toolchain

	readyPoll poller
	gonePoll  poller
}

// NewProvisioner resolves the region, verifies the caller identity, and
// wires up the real AWS service clients. Credentials come from the
// standard aws-sdk-go-v2 config chain.
func NewProvisioner(ctx context.Context) (*Provisioner, error) {
	region, awsCfg, err := resolveRegion(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	account := aws.ToString(identity.Account)
	log.Printf("provision: using AWS account %s in %s", account, region)

	return &Provisioner{
		region:    region,
		account:   account,
		params:    newSSMStore(awsCfg),
		secrets:   newSecretsStore(awsCfg),
		identity:  newCognitoIdentity(awsCfg),
		registry:  newECRRegistry(awsCfg),
		runtime:   newRuntimeControl(awsCfg),
		roles:     newIAMRoles(awsCfg),
		logs:      newLogGroups(awsCfg),
		toolchain: newExecToolchain(),
		readyPoll: newReadyPoller(),
		gonePoll:  newGonePoller(),
	}, nil
}

// resolveRegion determines the AWS region from the environment, falling
// back to the SDK default config chain. An undeterminable region is a
// fatal precondition failure.
func resolveRegion(ctx context.Context) (string, aws.Config, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return "", aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}

	region := regionFromEnv()
	if region == "" {
		region = awsCfg.Region
	}
	if region == "" {
		return "", aws.Config{}, &ProvisionError{
			Category:    ErrCategoryConfiguration,
			Operation:   "resolve",
			Resource:    "region",
			Message:     "unable to determine AWS region from environment or config",
			Remediation: "set AWS_REGION or configure a default region in ~/.aws/config",
		}
	}
	awsCfg.Region = region
	return region, awsCfg, nil
}
