package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func newTestBackend(t *testing.T, bucket string) *MemoryBackend {
	t.Helper()
	m := NewMemoryBackend()
	if err := m.CreateBucket(context.Background(), bucket); err != nil {
		t.Fatalf("create bucket %s: %v", bucket, err)
	}
	return m
}

func putString(t *testing.T, m *MemoryBackend, bucket, key, content string) {
	t.Helper()
	_, err := m.PutObject(context.Background(), bucket, key, strings.NewReader(content), int64(len(content)), "application/octet-stream")
	if err != nil {
		t.Fatalf("put %s/%s: %v", bucket, key, err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	content := "round trip payload"
	info, err := m.PutObject(ctx, "photos", "a.bin", strings.NewReader(content), int64(len(content)), "application/octet-stream")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Locator != "memory://photos/a.bin" {
		t.Errorf("unexpected locator %q", info.Locator)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", info.Size, len(content))
	}

	obj, err := m.GetObject(ctx, "photos", "a.bin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != content {
		t.Errorf("body = %q, want %q", data, content)
	}
	if obj.ContentType != "application/octet-stream" {
		t.Errorf("content type = %q", obj.ContentType)
	}
	if obj.ETag == "" {
		t.Error("expected non-empty etag")
	}
}

func TestGetMissing(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	_, err := m.GetObject(ctx, "photos", "nope.bin")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("missing key error = %v, want ErrObjectNotFound", err)
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error %v does not carry operation detail", err)
	}
	if opErr.Op != "get" || opErr.Bucket != "photos" || opErr.Key != "nope.bin" {
		t.Errorf("op detail = %+v", opErr)
	}

	_, err = m.GetObject(ctx, "no-such-bucket", "a.bin")
	if !errors.Is(err, ErrBucketNotFound) {
		t.Errorf("missing bucket error = %v, want ErrBucketNotFound", err)
	}
}

func TestDeleteObjectIdempotent(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()
	putString(t, m, "photos", "a.bin", "x")

	if err := m.DeleteObject(ctx, "photos", "a.bin"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := m.DeleteObject(ctx, "photos", "a.bin"); err != nil {
		t.Fatalf("second delete of same key: %v", err)
	}
	if err := m.DeleteObject(ctx, "photos", "never-existed.bin"); err != nil {
		t.Fatalf("delete of absent key: %v", err)
	}
}

func TestCreateBucketConflict(t *testing.T) {
	m := newTestBackend(t, "photos")

	err := m.CreateBucket(context.Background(), "photos")
	if !errors.Is(err, ErrBucketExists) {
		t.Errorf("duplicate create error = %v, want ErrBucketExists", err)
	}
}

func TestDeleteBucket(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()
	putString(t, m, "photos", "a.bin", "x")

	err := m.DeleteBucket(ctx, "photos")
	if !errors.Is(err, ErrBucketNotEmpty) {
		t.Fatalf("delete of non-empty bucket = %v, want ErrBucketNotEmpty", err)
	}

	if err := m.EmptyBucket(ctx, "photos"); err != nil {
		t.Fatalf("empty: %v", err)
	}
	// Emptying an already-empty bucket is a no-op.
	if err := m.EmptyBucket(ctx, "photos"); err != nil {
		t.Fatalf("empty again: %v", err)
	}

	if err := m.DeleteBucket(ctx, "photos"); err != nil {
		t.Fatalf("delete after empty: %v", err)
	}

	err = m.DeleteBucket(ctx, "photos")
	if !errors.Is(err, ErrBucketNotFound) {
		t.Errorf("delete of absent bucket = %v, want ErrBucketNotFound", err)
	}
}

func TestListPagination(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	const total, limit = 237, 50
	for i := 0; i < total; i++ {
		putString(t, m, "photos", fmt.Sprintf("obj-%04d.bin", i), "x")
	}

	var pages, seen int
	var prevLast, token string
	for {
		page, err := m.ListObjects(ctx, "photos", ListOptions{Token: token, Limit: limit})
		if err != nil {
			t.Fatalf("list page %d: %v", pages+1, err)
		}
		pages++
		seen += len(page.Objects)

		for _, obj := range page.Objects {
			if obj.Key <= prevLast {
				t.Fatalf("key %q out of order after %q", obj.Key, prevLast)
			}
			prevLast = obj.Key
		}

		if page.NextToken == "" {
			if len(page.Objects) != total%limit {
				t.Errorf("final page has %d objects, want %d", len(page.Objects), total%limit)
			}
			break
		}
		if len(page.Objects) != limit {
			t.Errorf("full page has %d objects, want %d", len(page.Objects), limit)
		}
		token = page.NextToken
	}

	if wantPages := (total + limit - 1) / limit; pages != wantPages {
		t.Errorf("visited %d pages, want %d", pages, wantPages)
	}
	if seen != total {
		t.Errorf("saw %d objects, want %d", seen, total)
	}
}

func TestListExactMultiple(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		putString(t, m, "photos", fmt.Sprintf("obj-%04d.bin", i), "x")
	}

	first, err := m.ListObjects(ctx, "photos", ListOptions{Limit: 50})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Objects) != 50 || first.NextToken == "" {
		t.Fatalf("first page: %d objects, token %q", len(first.Objects), first.NextToken)
	}

	second, err := m.ListObjects(ctx, "photos", ListOptions{Token: first.NextToken, Limit: 50})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Objects) != 50 {
		t.Errorf("second page has %d objects, want 50", len(second.Objects))
	}
	// No third page when the total divides evenly.
	if second.NextToken != "" {
		t.Errorf("second page token = %q, want empty", second.NextToken)
	}
}

func TestListPrefix(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	putString(t, m, "photos", "2024/a.bin", "x")
	putString(t, m, "photos", "2024/b.bin", "x")
	putString(t, m, "photos", "2025/c.bin", "x")

	page, err := m.ListObjects(ctx, "photos", ListOptions{Prefix: "2024/", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Objects) != 2 {
		t.Fatalf("prefix matched %d objects, want 2", len(page.Objects))
	}
	for _, obj := range page.Objects {
		if !strings.HasPrefix(obj.Key, "2024/") {
			t.Errorf("key %q escaped the prefix", obj.Key)
		}
	}
}

func TestStats(t *testing.T) {
	m := newTestBackend(t, "photos")
	ctx := context.Background()

	putString(t, m, "photos", "a.bin", "12345")
	putString(t, m, "photos", "b.bin", "1234567")

	stats, err := m.Stats(ctx, "photos")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ObjectCount != 2 {
		t.Errorf("object count = %d, want 2", stats.ObjectCount)
	}
	if stats.TotalBytes != 12 {
		t.Errorf("total bytes = %d, want 12", stats.TotalBytes)
	}

	_, err = m.Stats(ctx, "no-such-bucket")
	if !errors.Is(err, ErrBucketNotFound) {
		t.Errorf("stats on absent bucket = %v, want ErrBucketNotFound", err)
	}
}

func TestPresignEchoesExpiry(t *testing.T) {
	m := newTestBackend(t, "photos")
	putString(t, m, "photos", "a.bin", "x")

	signed, err := m.PresignGet(context.Background(), "photos", "a.bin", 15*time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(signed, "expires=900") {
		t.Errorf("presigned URL %q does not carry the requested expiry", signed)
	}
	if !strings.Contains(signed, "photos/a.bin") {
		t.Errorf("presigned URL %q does not reference the object", signed)
	}
}

func TestContextExpiry(t *testing.T) {
	m := newTestBackend(t, "photos")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := m.PutObject(ctx, "photos", "a.bin", strings.NewReader("x"), 1, "application/octet-stream")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expired context error = %v, want ErrTimeout", err)
	}

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = m.GetObject(canceled, "photos", "a.bin")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context error = %v, want context.Canceled", err)
	}
}
