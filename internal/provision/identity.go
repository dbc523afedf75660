package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// Fixed test principal provisioned in every unit's user pool. The
// credentials land in the secret store, never in parameters.
const (
	testUsername = "testuser"
	testPassword = "MyPassword123!"
)

// identityClient abstracts the identity-provider control plane so the
// deploy flow can be tested against an in-memory fake.
type identityClient interface {
	// CreatePool creates a user pool and returns its id.
	CreatePool(ctx context.Context, name string) (string, error)
	// CreateClient creates an app client on the pool and returns its id.
	CreateClient(ctx context.Context, poolID, name string) (string, error)
	// CreateUser creates the fixed test principal with a permanent
	// password.
	CreateUser(ctx context.Context, poolID, username, password string) error
	// Authenticate performs a password auth and returns a bearer token.
	Authenticate(ctx context.Context, clientID, username, password string) (string, error)
	// LookupClientID re-derives the app client id from the live pool.
	LookupClientID(ctx context.Context, poolID string) (string, error)
	// DeletePool removes the pool. Deleting an absent pool is not an
	// error.
	DeletePool(ctx context.Context, poolID string) error
}

// cognitoIdentity implements identityClient on Amazon Cognito.
type cognitoIdentity struct {
	client *cognito.Client
}

func newCognitoIdentity(cfg aws.Config) *cognitoIdentity {
	return &cognitoIdentity{client: cognito.NewFromConfig(cfg)}
}

func (c *cognitoIdentity) CreatePool(ctx context.Context, name string) (string, error) {
	out, err := c.client.CreateUserPool(ctx, &cognito.CreateUserPoolInput{
		PoolName: aws.String(name),
		Policies: &types.UserPoolPolicyType{
			PasswordPolicy: &types.PasswordPolicyType{
				MinimumLength:    aws.Int32(8),
				RequireUppercase: false,
				RequireLowercase: false,
				RequireNumbers:   false,
				RequireSymbols:   false,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("CreateUserPool %q: %w", name, err)
	}
	return aws.ToString(out.UserPool.Id), nil
}

func (c *cognitoIdentity) CreateClient(ctx context.Context, poolID, name string) (string, error) {
	out, err := c.client.CreateUserPoolClient(ctx, &cognito.CreateUserPoolClientInput{
		UserPoolId: aws.String(poolID),
		ClientName: aws.String(name),
		ExplicitAuthFlows: []types.ExplicitAuthFlowsType{
			types.ExplicitAuthFlowsTypeAllowUserPasswordAuth,
			types.ExplicitAuthFlowsTypeAllowRefreshTokenAuth,
		},
	})
	if err != nil {
		return "", fmt.Errorf("CreateUserPoolClient on pool %q: %w", poolID, err)
	}
	return aws.ToString(out.UserPoolClient.ClientId), nil
}

func (c *cognitoIdentity) CreateUser(ctx context.Context, poolID, username, password string) error {
	_, err := c.client.AdminCreateUser(ctx, &cognito.AdminCreateUserInput{
		UserPoolId:        aws.String(poolID),
		Username:          aws.String(username),
		TemporaryPassword: aws.String(password),
		MessageAction:     types.MessageActionTypeSuppress,
	})
	if err != nil {
		return fmt.Errorf("AdminCreateUser %q on pool %q: %w", username, poolID, err)
	}

	// Promote the temporary password so the principal can authenticate
	// without a challenge round-trip.
	_, err = c.client.AdminSetUserPassword(ctx, &cognito.AdminSetUserPasswordInput{
		UserPoolId: aws.String(poolID),
		Username:   aws.String(username),
		Password:   aws.String(password),
		Permanent:  true,
	})
	if err != nil {
		return fmt.Errorf("AdminSetUserPassword %q on pool %q: %w", username, poolID, err)
	}
	return nil
}

func (c *cognitoIdentity) Authenticate(ctx context.Context, clientID, username, password string) (string, error) {
	out, err := c.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		ClientId: aws.String(clientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return "", fmt.Errorf("InitiateAuth for %q: %w", username, err)
	}
	if out.AuthenticationResult == nil {
		return "", fmt.Errorf("InitiateAuth for %q: no authentication result", username)
	}
	return aws.ToString(out.AuthenticationResult.AccessToken), nil
}

func (c *cognitoIdentity) LookupClientID(ctx context.Context, poolID string) (string, error) {
	out, err := c.client.ListUserPoolClients(ctx, &cognito.ListUserPoolClientsInput{
		UserPoolId: aws.String(poolID),
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("ListUserPoolClients on pool %q: %w", poolID, err)
	}
	if len(out.UserPoolClients) == 0 {
		return "", fmt.Errorf("pool %q has no app clients", poolID)
	}
	return aws.ToString(out.UserPoolClients[0].ClientId), nil
}

func (c *cognitoIdentity) DeletePool(ctx context.Context, poolID string) error {
	_, err := c.client.DeleteUserPool(ctx, &cognito.DeleteUserPoolInput{
		UserPoolId: aws.String(poolID),
	})
	if err != nil && !isAPINotFound(err) {
		return fmt.Errorf("DeleteUserPool %q: %w", poolID, err)
	}
	return nil
}
