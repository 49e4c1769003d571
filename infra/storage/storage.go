package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the narrow surface the gateway needs from an S3-compatible
// object store. Implementations must be safe for concurrent use, honor
// context cancellation on every call, and map native failures onto the
// sentinel errors in this package. Backends never retry; retry policy
// belongs to callers.
type Backend interface {
	// PutObject streams body into bucket/key and returns the stored
	// object's locator. Pass size -1 when the length is unknown.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (PutInfo, error)

	// GetObject opens bucket/key for reading. The caller owns the
	// returned body and must close it.
	GetObject(ctx context.Context, bucket, key string) (*Object, error)

	// DeleteObject removes bucket/key. Deleting an absent key is not an
	// error.
	DeleteObject(ctx context.Context, bucket, key string) error

	// ListObjects returns one page of keys in the backend's own order.
	// An empty opts.Token requests the first page; an empty
	// Page.NextToken marks the final one.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) (Page, error)

	// PresignGet returns a time-limited URL granting unauthenticated
	// read access to bucket/key.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)

	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error

	// DeleteBucket removes the bucket itself. It does not empty the
	// bucket first; deleting a non-empty bucket surfaces the backend's
	// refusal.
	DeleteBucket(ctx context.Context, bucket string) error

	// EmptyBucket bulk-deletes every object in the bucket. Emptying an
	// already-empty bucket is a no-op.
	EmptyBucket(ctx context.Context, bucket string) error

	// Stats reports object count and total size. Figures may be
	// approximate where the backend only offers eventually-consistent
	// accounting.
	Stats(ctx context.Context, bucket string) (BucketStats, error)
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	StorageClass string
	LastModified time.Time
}

// Object couples an open read stream with the metadata of the stored
// object it came from.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
}

type PutInfo struct {
	Locator string
	ETag    string
	Size    int64
}

type ListOptions struct {
	Prefix string
	Token  string
	Limit  int
}

type Page struct {
	Objects   []ObjectInfo
	NextToken string
}

type BucketStats struct {
	ObjectCount int64
	TotalBytes  int64
}
