package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// ErrRoleNotFound signals that the unit's execution role does not
// exist. The role is owned by a separate provisioning layer, so this is
// a fatal precondition for Deploy, never something Deploy creates.
var ErrRoleNotFound = errors.New("execution role not found")

// roleClient abstracts the execution-role pre-flight lookup.
type roleClient interface {
	// LookupRoleARN returns the ARN of the named role, or
	// ErrRoleNotFound.
	LookupRoleARN(ctx context.Context, name string) (string, error)
}

// iamRoles implements roleClient on AWS IAM.
type iamRoles struct {
	client *iam.Client
}

func newIAMRoles(cfg aws.Config) *iamRoles {
	return &iamRoles{client: iam.NewFromConfig(cfg)}
}

func (r *iamRoles) LookupRoleARN(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetRole(ctx, &iam.GetRoleInput{
		RoleName: aws.String(name),
	})
	if err != nil {
		var notFound *types.NoSuchEntityException
		if errors.As(err, &notFound) {
			return "", ErrRoleNotFound
		}
		return "", fmt.Errorf("GetRole %q: %w", name, err)
	}
	return aws.ToString(out.Role.Arn), nil
}
