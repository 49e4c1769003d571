package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blobgate/blobgate/infra/storage"
)

func TestCreateBucket(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	if err := p.CreateBucket(ctx, "fresh-bucket"); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err := p.BucketExists(ctx, "fresh-bucket")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("created bucket reported absent")
	}

	err = p.CreateBucket(ctx, "fresh-bucket")
	if !errors.Is(err, storage.ErrBucketExists) {
		t.Errorf("duplicate create = %v, want ErrBucketExists", err)
	}
}

func TestDeleteBucketRequiresEmpty(t *testing.T) {
	p, backend := newTestProvider(t, "photos")
	ctx := context.Background()

	_, err := backend.PutObject(ctx, "photos", "a.png", strings.NewReader("x"), 1, "image/png")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Deleting never empties implicitly.
	err = p.DeleteBucket(ctx, "photos")
	if !errors.Is(err, storage.ErrBucketNotEmpty) {
		t.Fatalf("delete of non-empty bucket = %v, want ErrBucketNotEmpty", err)
	}

	if err := p.EmptyBucket(ctx, "photos"); err != nil {
		t.Fatalf("empty: %v", err)
	}
	if err := p.EmptyBucket(ctx, "photos"); err != nil {
		t.Fatalf("empty of already-empty bucket: %v", err)
	}
	if err := p.DeleteBucket(ctx, "photos"); err != nil {
		t.Fatalf("delete after empty: %v", err)
	}

	exists, err := p.BucketExists(ctx, "photos")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("deleted bucket reported present")
	}
}

func TestBucketStats(t *testing.T) {
	p, backend := newTestProvider(t, "photos")
	ctx := context.Background()

	for _, seed := range []struct {
		key     string
		payload string
	}{
		{"a.png", "12345"},
		{"b.png", "1234567890"},
	} {
		_, err := backend.PutObject(ctx, "photos", seed.key, strings.NewReader(seed.payload), int64(len(seed.payload)), "image/png")
		if err != nil {
			t.Fatalf("seed %s: %v", seed.key, err)
		}
	}

	stats, err := p.BucketStats(ctx, "photos")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ObjectCount != 2 {
		t.Errorf("object count = %d, want 2", stats.ObjectCount)
	}
	if stats.TotalBytes != 15 {
		t.Errorf("total bytes = %d, want 15", stats.TotalBytes)
	}

	_, err = p.BucketStats(ctx, "missing-bucket")
	if !errors.Is(err, storage.ErrBucketNotFound) {
		t.Errorf("stats on absent bucket = %v, want ErrBucketNotFound", err)
	}
}
