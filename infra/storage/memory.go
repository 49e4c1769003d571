package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBackend keeps whole objects in process memory. It backs unit
// tests and the "memory" driver for local development, and honors the
// same contract as the real adapters: sentinel error mapping, context
// cancellation, lexical listing order and idempotent object deletes.
type MemoryBackend struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets: make(map[string]map[string]memoryObject),
	}
}

func (m *MemoryBackend) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (PutInfo, error) {
	if err := ctx.Err(); err != nil {
		return PutInfo{}, m.wrap("put", bucket, key, err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return PutInfo{}, m.wrap("put", bucket, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return PutInfo{}, m.wrap("put", bucket, key, ErrBucketNotFound)
	}

	info := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         fmt.Sprintf("%x", md5.Sum(data)),
		ContentType:  contentType,
		StorageClass: "STANDARD",
		LastModified: time.Now().UTC(),
	}
	objects[key] = memoryObject{data: data, info: info}

	return PutInfo{
		Locator: memoryLocator(bucket, key),
		ETag:    info.ETag,
		Size:    info.Size,
	}, nil
}

func (m *MemoryBackend) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, m.wrap("get", bucket, key, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return nil, m.wrap("get", bucket, key, ErrBucketNotFound)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, m.wrap("get", bucket, key, ErrObjectNotFound)
	}

	return &Object{
		ObjectInfo: obj.info,
		Body:       io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (m *MemoryBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return m.wrap("delete", bucket, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return m.wrap("delete", bucket, key, ErrBucketNotFound)
	}
	// Absent keys delete cleanly, matching S3.
	delete(objects, key)
	return nil
}

func (m *MemoryBackend) ListObjects(ctx context.Context, bucket string, opts ListOptions) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, m.wrap("list", bucket, "", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return Page{}, m.wrap("list", bucket, "", ErrBucketNotFound)
	}

	keys := make([]string, 0, len(objects))
	for key := range objects {
		if opts.Prefix == "" || strings.HasPrefix(key, opts.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	// The token is the last key of the previous page; resume strictly
	// after it.
	if opts.Token != "" {
		idx := sort.SearchStrings(keys, opts.Token)
		if idx < len(keys) && keys[idx] == opts.Token {
			idx++
		}
		keys = keys[idx:]
	}

	var page Page
	if len(keys) > limit {
		keys = keys[:limit]
		page.NextToken = keys[limit-1]
	}
	page.Objects = make([]ObjectInfo, 0, len(keys))
	for _, key := range keys {
		page.Objects = append(page.Objects, objects[key].info)
	}

	return page, nil
}

func (m *MemoryBackend) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", m.wrap("presign", bucket, key, err)
	}
	return fmt.Sprintf("%s?expires=%d", memoryLocator(bucket, key), int64(expiry.Seconds())), nil
}

func (m *MemoryBackend) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, m.wrap("bucket_exists", bucket, "", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *MemoryBackend) CreateBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return m.wrap("create_bucket", bucket, "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket]; ok {
		return m.wrap("create_bucket", bucket, "", ErrBucketExists)
	}
	m.buckets[bucket] = make(map[string]memoryObject)
	return nil
}

func (m *MemoryBackend) DeleteBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return m.wrap("delete_bucket", bucket, "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return m.wrap("delete_bucket", bucket, "", ErrBucketNotFound)
	}
	if len(objects) > 0 {
		return m.wrap("delete_bucket", bucket, "", ErrBucketNotEmpty)
	}
	delete(m.buckets, bucket)
	return nil
}

func (m *MemoryBackend) EmptyBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return m.wrap("empty_bucket", bucket, "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket]; !ok {
		return m.wrap("empty_bucket", bucket, "", ErrBucketNotFound)
	}
	m.buckets[bucket] = make(map[string]memoryObject)
	return nil
}

func (m *MemoryBackend) Stats(ctx context.Context, bucket string) (BucketStats, error) {
	if err := ctx.Err(); err != nil {
		return BucketStats{}, m.wrap("stats", bucket, "", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	objects, ok := m.buckets[bucket]
	if !ok {
		return BucketStats{}, m.wrap("stats", bucket, "", ErrBucketNotFound)
	}

	var stats BucketStats
	for _, obj := range objects {
		stats.ObjectCount++
		stats.TotalBytes += obj.info.Size
	}
	return stats, nil
}

func (m *MemoryBackend) wrap(op, bucket, key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrTimeout
	}
	return &OpError{Op: op, Bucket: bucket, Key: key, Err: err}
}

func memoryLocator(bucket, key string) string {
	return "memory://" + bucket + "/" + key
}
