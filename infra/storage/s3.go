package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/blobgate/blobgate/config"
)

// S3Backend talks to AWS S3 or any S3-compatible store (Garage, Ceph
// RGW) through the official SDK. Path-style addressing is forced so
// self-hosted endpoints work without wildcard DNS.
type S3Backend struct {
	client    *s3.Client
	presigner *s3.PresignClient
	endpoint  string
	region    string
}

func InitS3Backend(cfg *config.EnvConfig) *S3Backend {
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

	scheme := "http"
	if cfg.Storage.UseSSL {
		scheme = "https"
	}
	baseURL := scheme + "://" + endpoint

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to load S3 configuration: %v", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseURL)
		o.UsePathStyle = true
	})

	return &S3Backend{
		client:    client,
		presigner: s3.NewPresignClient(client),
		endpoint:  baseURL,
		region:    cfg.Storage.Region,
	}
}

func (b *S3Backend) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (PutInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		return PutInfo{}, b.wrap("put", bucket, key, err)
	}

	return PutInfo{
		Locator: b.endpoint + "/" + bucket + "/" + key,
		ETag:    trimETag(aws.ToString(out.ETag)),
		Size:    size,
	}, nil
}

func (b *S3Backend) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, b.wrap("get", bucket, key, err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			ETag:         trimETag(aws.ToString(out.ETag)),
			ContentType:  aws.ToString(out.ContentType),
			StorageClass: string(out.StorageClass),
			LastModified: aws.ToTime(out.LastModified),
		},
		Body: out.Body,
	}, nil
}

func (b *S3Backend) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return b.wrap("delete", bucket, key, err)
	}
	return nil
}

func (b *S3Backend) ListObjects(ctx context.Context, bucket string, opts ListOptions) (Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(limit)),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	// An empty token means first page and must never be forwarded;
	// backends reject a literal empty continuation token.
	if opts.Token != "" {
		input.ContinuationToken = aws.String(opts.Token)
	}

	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return Page{}, b.wrap("list", bucket, "", err)
	}

	page := Page{Objects: make([]ObjectInfo, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         trimETag(aws.ToString(obj.ETag)),
			StorageClass: string(obj.StorageClass),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}

	return page, nil
}

func (b *S3Backend) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", b.wrap("presign", bucket, key, err)
	}
	return req.URL, nil
}

func (b *S3Backend) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, b.wrap("bucket_exists", bucket, "", err)
	}
	return true, nil
}

func (b *S3Backend) CreateBucket(ctx context.Context, bucket string) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	if b.region != "" && b.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.region),
		}
	}

	_, err := b.client.CreateBucket(ctx, input)
	if err != nil {
		return b.wrap("create_bucket", bucket, "", err)
	}
	return nil
}

func (b *S3Backend) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := b.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return b.wrap("delete_bucket", bucket, "", err)
	}
	return nil
}

func (b *S3Backend) EmptyBucket(ctx context.Context, bucket string) error {
	var token *string
	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return b.wrap("empty_bucket", bucket, "", err)
		}

		if len(out.Contents) > 0 {
			ids := make([]types.ObjectIdentifier, 0, len(out.Contents))
			for _, obj := range out.Contents {
				ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
			}

			del, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(bucket),
				Delete: &types.Delete{
					Objects: ids,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return b.wrap("empty_bucket", bucket, "", err)
			}
			if len(del.Errors) > 0 {
				first := del.Errors[0]
				return b.wrap("empty_bucket", bucket, aws.ToString(first.Key),
					fmt.Errorf("%s: %s", aws.ToString(first.Code), aws.ToString(first.Message)))
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		token = out.NextContinuationToken
	}
}

func (b *S3Backend) Stats(ctx context.Context, bucket string) (BucketStats, error) {
	var stats BucketStats
	var token *string
	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: token,
		})
		if err != nil {
			return BucketStats{}, b.wrap("stats", bucket, "", err)
		}

		for _, obj := range out.Contents {
			stats.ObjectCount++
			stats.TotalBytes += aws.ToInt64(obj.Size)
		}

		if !aws.ToBool(out.IsTruncated) {
			return stats, nil
		}
		token = out.NextContinuationToken
	}
}

func (b *S3Backend) wrap(op, bucket, key string, err error) error {
	return &OpError{Op: op, Bucket: bucket, Key: key, Err: mapS3Err(err)}
}

func mapS3Err(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	}

	var (
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
		notFound *types.NotFound
		owned    *types.BucketAlreadyOwnedByYou
		taken    *types.BucketAlreadyExists
	)
	switch {
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return ErrObjectNotFound
	case errors.As(err, &noBucket):
		return ErrBucketNotFound
	case errors.As(err, &owned), errors.As(err, &taken):
		return ErrBucketExists
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey":
			return ErrObjectNotFound
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
			return ErrBucketExists
		case "BucketNotEmpty":
			return ErrBucketNotEmpty
		}
		return err
	}

	// No API response at all, the endpoint never answered.
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}
