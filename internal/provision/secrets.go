package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// secretsStore implements SecretStore on AWS Secrets Manager.
type secretsStore struct {
	client *secretsmanager.Client
}

func newSecretsStore(cfg aws.Config) *secretsStore {
	return &secretsStore{client: secretsmanager.NewFromConfig(cfg)}
}

func (s *secretsStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		if isSecretNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("DescribeSecret %q: %w", name, err)
	}
	return true, nil
}

func (s *secretsStore) Create(ctx context.Context, name, value string) error {
	_, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("CreateSecret %q: %w", name, err)
	}
	return nil
}

func (s *secretsStore) Update(ctx context.Context, name, value string) error {
	_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("PutSecretValue %q: %w", name, err)
	}
	return nil
}

func (s *secretsStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(name),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isSecretNotFound(err) {
		return fmt.Errorf("DeleteSecret %q: %w", name, err)
	}
	return nil
}

// isSecretNotFound reports whether err is the Secrets Manager
// not-found error.
func isSecretNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}
