package provider

import (
	"context"

	"github.com/blobgate/blobgate/infra/storage"
)

// CreateBucket provisions a bucket, rejecting duplicates. The existence
// check and the create are not atomic; a concurrent create for the same
// name can still surface the backend's own conflict error, which maps
// to the same ErrBucketExists.
func (p *Provider) CreateBucket(ctx context.Context, name string) error {
	if err := ValidateBucketName(name); err != nil {
		return err
	}

	exists, err := p.backend.BucketExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return &storage.OpError{Op: "create_bucket", Bucket: name, Err: storage.ErrBucketExists}
	}

	return p.backend.CreateBucket(ctx, name)
}

func (p *Provider) BucketExists(ctx context.Context, name string) (bool, error) {
	if err := ValidateBucketName(name); err != nil {
		return false, err
	}
	return p.backend.BucketExists(ctx, name)
}

// DeleteBucket removes the bucket itself. Emptying first is the
// caller's responsibility; deleting a non-empty bucket surfaces the
// backend's refusal unchanged.
func (p *Provider) DeleteBucket(ctx context.Context, name string) error {
	if err := ValidateBucketName(name); err != nil {
		return err
	}
	return p.backend.DeleteBucket(ctx, name)
}

// EmptyBucket bulk-deletes every object in the bucket. An already-empty
// bucket is a successful no-op.
func (p *Provider) EmptyBucket(ctx context.Context, name string) error {
	if err := ValidateBucketName(name); err != nil {
		return err
	}
	return p.backend.EmptyBucket(ctx, name)
}

// BucketStats reports object count and total size; figures may be
// approximate on backends that only track usage asynchronously.
func (p *Provider) BucketStats(ctx context.Context, name string) (storage.BucketStats, error) {
	if err := ValidateBucketName(name); err != nil {
		return storage.BucketStats{}, err
	}
	return p.backend.Stats(ctx, name)
}
