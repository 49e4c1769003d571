package provider

import (
	"context"

	"github.com/blobgate/blobgate/infra/storage"
)

// DownloadOne opens bucket/key for streaming. The caller owns the
// returned body and must close it; no deadline is imposed here so slow
// consumers can drain large objects at their own pace.
func (p *Provider) DownloadOne(ctx context.Context, bucket, key string) (*storage.Object, error) {
	if err := ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	return p.backend.GetObject(ctx, bucket, key)
}

// DeleteObject removes bucket/key under a short deadline. Deleting an
// absent key succeeds.
func (p *Provider) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := ValidateBucketName(bucket); err != nil {
		return err
	}

	delCtx, cancel := context.WithTimeout(ctx, p.deleteTimeout)
	defer cancel()

	return p.backend.DeleteObject(delCtx, bucket, key)
}

// PresignedGetURL returns a shareable, time-limited URL for bucket/key.
// The expiry is service policy, never caller input.
func (p *Provider) PresignedGetURL(ctx context.Context, bucket, key string) (string, error) {
	if err := ValidateBucketName(bucket); err != nil {
		return "", err
	}
	return p.backend.PresignGet(ctx, bucket, key, p.presignExpiry)
}
