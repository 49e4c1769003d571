package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/blobgate/blobgate/config"
)

// MinioBackend serves MinIO and any other S3-compatible store reachable
// through the minio-go client. The optional admin client enables the
// server-side usage crawler as a fast path for bucket stats.
type MinioBackend struct {
	client *minio.Client
	admin  *madmin.AdminClient
	region string
}

func InitMinioBackend(cfg *config.EnvConfig) *MinioBackend {
	endpoint := cfg.Storage.Endpoint
	if endpoint == "" {
		panic("storage endpoint is not configured")
	}

	accessKey := cfg.Storage.AccessKey
	if accessKey == "" {
		panic("storage access key is not configured")
	}

	secretKey := cfg.Storage.SecretKey
	if secretKey == "" {
		panic("storage secret key is not configured")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	var admin *madmin.AdminClient
	if cfg.Storage.AdminAPI {
		admin, err = madmin.New(endpoint, accessKey, secretKey, cfg.Storage.UseSSL)
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
		}
	}

	return &MinioBackend{
		client: client,
		admin:  admin,
		region: cfg.Storage.Region,
	}
}

func (m *MinioBackend) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (PutInfo, error) {
	info, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return PutInfo{}, m.wrap("put", bucket, key, err)
	}

	return PutInfo{
		Locator: m.locator(bucket, key),
		ETag:    info.ETag,
		Size:    info.Size,
	}, nil
}

func (m *MinioBackend) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.wrap("get", bucket, key, err)
	}

	// GetObject defers the request until the first read; Stat forces it
	// so a missing key fails here instead of mid-stream.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, m.wrap("get", bucket, key, err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         stat.Size,
			ETag:         stat.ETag,
			ContentType:  stat.ContentType,
			StorageClass: stat.StorageClass,
			LastModified: stat.LastModified,
		},
		Body: obj,
	}, nil
}

func (m *MinioBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return m.wrap("delete", bucket, key, err)
	}
	return nil
}

func (m *MinioBackend) ListObjects(ctx context.Context, bucket string, opts ListOptions) (Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// MaxKeys limit+1 lets us detect a further page without issuing an
	// extra request; the overflow object is re-listed next page via
	// StartAfter.
	objectCh := m.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{
		Prefix:     opts.Prefix,
		Recursive:  true,
		StartAfter: opts.Token,
		MaxKeys:    limit + 1,
	})

	var page Page
	for obj := range objectCh {
		if obj.Err != nil {
			return Page{}, m.wrap("list", bucket, "", obj.Err)
		}
		if len(page.Objects) == limit {
			page.NextToken = page.Objects[limit-1].Key
			break
		}
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			ContentType:  obj.ContentType,
			StorageClass: obj.StorageClass,
			LastModified: obj.LastModified,
		})
	}

	return page, nil
}

func (m *MinioBackend) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	signed, err := m.client.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", m.wrap("presign", bucket, key, err)
	}
	return signed.String(), nil
}

func (m *MinioBackend) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, m.wrap("bucket_exists", bucket, "", err)
	}
	return exists, nil
}

func (m *MinioBackend) CreateBucket(ctx context.Context, bucket string) error {
	err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{
		Region: m.region,
	})
	if err != nil {
		return m.wrap("create_bucket", bucket, "", err)
	}
	return nil
}

func (m *MinioBackend) DeleteBucket(ctx context.Context, bucket string) error {
	err := m.client.RemoveBucket(ctx, bucket)
	if err != nil {
		return m.wrap("delete_bucket", bucket, "", err)
	}
	return nil
}

func (m *MinioBackend) EmptyBucket(ctx context.Context, bucket string) error {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectCh := m.client.ListObjects(listCtx, bucket, minio.ListObjectsOptions{
		Recursive: true,
	})

	toDelete := make(chan minio.ObjectInfo)
	var listErr error

	// cancel unblocks this feeder when the delete loop bails out early.
	go func() {
		defer close(toDelete)
		for obj := range objectCh {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case toDelete <- obj:
			case <-listCtx.Done():
				return
			}
		}
	}()

	for rerr := range m.client.RemoveObjects(ctx, bucket, toDelete, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return m.wrap("empty_bucket", bucket, rerr.ObjectName, rerr.Err)
		}
	}

	// RemoveObjects drains toDelete before its error channel closes, so
	// the feeder goroutine is done by the time we read listErr.
	if listErr != nil {
		return m.wrap("empty_bucket", bucket, "", listErr)
	}
	return nil
}

func (m *MinioBackend) Stats(ctx context.Context, bucket string) (BucketStats, error) {
	if m.admin != nil {
		usage, err := m.admin.DataUsageInfo(ctx)
		if err == nil {
			if bu, ok := usage.BucketsUsage[bucket]; ok {
				return BucketStats{
					ObjectCount: int64(bu.ObjectsCount),
					TotalBytes:  int64(bu.Size),
				}, nil
			}
			// Usage crawler has not seen the bucket yet, fall through
			// to counting by listing.
		}
	}

	var stats BucketStats
	objectCh := m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Recursive: true,
	})
	for obj := range objectCh {
		if obj.Err != nil {
			return BucketStats{}, m.wrap("stats", bucket, "", obj.Err)
		}
		stats.ObjectCount++
		stats.TotalBytes += obj.Size
	}

	return stats, nil
}

func (m *MinioBackend) locator(bucket, key string) string {
	u := *m.client.EndpointURL()
	u.Path = "/" + bucket + "/" + key
	return u.String()
}

func (m *MinioBackend) wrap(op, bucket, key string, err error) error {
	return &OpError{Op: op, Bucket: bucket, Key: key, Err: mapMinioErr(err)}
}

func mapMinioErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return ErrObjectNotFound
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return ErrBucketExists
	case "BucketNotEmpty":
		return ErrBucketNotEmpty
	case "":
		// Not an S3 API error, the backend never answered.
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}
