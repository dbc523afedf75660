package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmStore implements ParamStore on AWS Systems Manager Parameter
// Store.
type ssmStore struct {
	client *ssm.Client
}

func newSSMStore(cfg aws.Config) *ssmStore {
	return &ssmStore{client: ssm.NewFromConfig(cfg)}
}

func (s *ssmStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(key),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("GetParameter %q: %w", key, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

func (s *ssmStore) Put(ctx context.Context, key, value string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("PutParameter %q: %w", key, err)
	}
	return nil
}

func (s *ssmStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(key),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("DeleteParameter %q: %w", key, err)
	}
	return nil
}
