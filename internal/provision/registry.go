package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
)

// ImageID identifies one stored image by digest and/or tag.
type ImageID struct {
	Digest string
	Tag    string
}

// registryClient abstracts the container-registry control plane for
// teardown. Image purging happens before repository deletion because
// the registry rejects deleting a non-empty repository.
type registryClient interface {
	// ListImageIDs enumerates all images in the repository. An absent
	// repository yields an empty list.
	ListImageIDs(ctx context.Context, repo string) ([]ImageID, error)
	// BatchDeleteImages removes the given images.
	BatchDeleteImages(ctx context.Context, repo string, ids []ImageID) error
	// DeleteRepository removes the repository. Deleting an absent
	// repository is not an error.
	DeleteRepository(ctx context.Context, repo string) error
}

// ecrRegistry implements registryClient on Amazon ECR.
type ecrRegistry struct {
	client *ecr.Client
}

func newECRRegistry(cfg aws.Config) *ecrRegistry {
	return &ecrRegistry{client: ecr.NewFromConfig(cfg)}
}

func (r *ecrRegistry) ListImageIDs(ctx context.Context, repo string) ([]ImageID, error) {
	var ids []ImageID
	var nextToken *string
	for {
		out, err := r.client.ListImages(ctx, &ecr.ListImagesInput{
			RepositoryName: aws.String(repo),
			NextToken:      nextToken,
		})
		if err != nil {
			if isRepoNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("ListImages %q: %w", repo, err)
		}
		for _, id := range out.ImageIds {
			ids = append(ids, ImageID{
				Digest: aws.ToString(id.ImageDigest),
				Tag:    aws.ToString(id.ImageTag),
			})
		}
		if out.NextToken == nil {
			return ids, nil
		}
		nextToken = out.NextToken
	}
}

func (r *ecrRegistry) BatchDeleteImages(ctx context.Context, repo string, ids []ImageID) error {
	if len(ids) == 0 {
		return nil
	}
	imageIDs := make([]types.ImageIdentifier, 0, len(ids))
	for _, id := range ids {
		iid := types.ImageIdentifier{}
		if id.Digest != "" {
			iid.ImageDigest = aws.String(id.Digest)
		}
		if id.Tag != "" {
			iid.ImageTag = aws.String(id.Tag)
		}
		imageIDs = append(imageIDs, iid)
	}
	_, err := r.client.BatchDeleteImage(ctx, &ecr.BatchDeleteImageInput{
		RepositoryName: aws.String(repo),
		ImageIds:       imageIDs,
	})
	if err != nil && !isRepoNotFound(err) {
		return fmt.Errorf("BatchDeleteImage %q: %w", repo, err)
	}
	return nil
}

func (r *ecrRegistry) DeleteRepository(ctx context.Context, repo string) error {
	_, err := r.client.DeleteRepository(ctx, &ecr.DeleteRepositoryInput{
		RepositoryName: aws.String(repo),
		Force:          true,
	})
	if err != nil && !isRepoNotFound(err) {
		return fmt.Errorf("DeleteRepository %q: %w", repo, err)
	}
	return nil
}

// isRepoNotFound reports whether err is the ECR repository-not-found
// error.
func isRepoNotFound(err error) bool {
	var notFound *types.RepositoryNotFoundException
	return errors.As(err, &notFound)
}
