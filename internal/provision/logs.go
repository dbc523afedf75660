package provision

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// logGroupClient abstracts log-group creation so the deploy flow can be
// tested without CloudWatch.
type logGroupClient interface {
	// EnsureLogGroup creates the log group if it does not already
	// exist.
	EnsureLogGroup(ctx context.Context, name string) error
}

// cwLogGroups implements logGroupClient on CloudWatch Logs.
type cwLogGroups struct {
	client *cloudwatchlogs.Client
}

func newLogGroups(cfg aws.Config) *cwLogGroups {
	return &cwLogGroups{client: cloudwatchlogs.NewFromConfig(cfg)}
}

func (c *cwLogGroups) EnsureLogGroup(ctx context.Context, name string) error {
	_, err := c.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil {
		var exists *types.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("create log group %q: %w", name, err)
	}
	log.Printf("provision: created CloudWatch log group %s", name)
	return nil
}
