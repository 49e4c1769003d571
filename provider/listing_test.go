package provider

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/infra/storage"
)

func fillBucket(t *testing.T, backend *storage.MemoryBackend, bucket string, n int, keyFmt string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf(keyFmt, i)
		_, err := backend.PutObject(ctx, bucket, key, strings.NewReader("payload"), 7, "application/octet-stream")
		if err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}

// 237 objects at page size 50 terminate in exactly five pages covering
// all 237 keys, the last page carrying no token.
func TestListTerminates(t *testing.T) {
	p, backend := newTestProvider(t, "photos")
	fillBucket(t, backend, "photos", 237, "obj-%04d.png")

	ctx := context.Background()
	var pages, seen int
	var token string
	for {
		listing, err := p.List(ctx, "photos", ListQuery{Token: token, Limit: 50})
		if err != nil {
			t.Fatalf("page %d: %v", pages+1, err)
		}
		pages++
		seen += len(listing.Objects)

		if listing.NextToken == "" {
			break
		}
		if pages > 10 {
			t.Fatal("listing did not terminate")
		}
		token = listing.NextToken
	}

	if pages != 5 {
		t.Errorf("walked %d pages, want 5", pages)
	}
	if seen != 237 {
		t.Errorf("saw %d objects, want 237", seen)
	}
}

func TestListSummaries(t *testing.T) {
	p, backend := newTestProvider(t, "photos")
	ctx := context.Background()

	payload := strings.Repeat("x", 2048)
	_, err := backend.PutObject(ctx, "photos", "big.png", strings.NewReader(payload), int64(len(payload)), "image/png")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	listing, err := p.List(ctx, "photos", ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listing.Objects) != 1 {
		t.Fatalf("got %d objects, want 1", len(listing.Objects))
	}

	obj := listing.Objects[0]
	if obj.Key != "big.png" {
		t.Errorf("key = %q", obj.Key)
	}
	if obj.SizeBytes != 2048 {
		t.Errorf("size bytes = %d, want 2048", obj.SizeBytes)
	}
	if obj.Size != "2.0 KiB" {
		t.Errorf("human size = %q, want 2.0 KiB", obj.Size)
	}
	if obj.Extension != "png" {
		t.Errorf("extension = %q, want png", obj.Extension)
	}
	if obj.LastModified.IsZero() {
		t.Error("last modified not set")
	}
}

// The extension filter runs after pagination: a page may come back with
// no objects while its token still advances the walk.
func TestListExtensionFilter(t *testing.T) {
	p, backend := newTestProvider(t, "photos")

	// Keys sort so the first page of 10 holds only .png entries and all
	// .pdf entries land on later pages.
	fillBucket(t, backend, "photos", 10, "a-%04d.png")
	fillBucket(t, backend, "photos", 5, "z-%04d.pdf")

	ctx := context.Background()

	first, err := p.List(ctx, "photos", ListQuery{Extension: "pdf", Limit: 10})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Objects) != 0 {
		t.Errorf("first page matched %d objects, want 0", len(first.Objects))
	}
	if first.NextToken == "" {
		t.Fatal("empty filtered page must still carry the continuation token")
	}

	var matched int
	token := first.NextToken
	for token != "" {
		page, err := p.List(ctx, "photos", ListQuery{Extension: "pdf", Token: token, Limit: 10})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		for _, obj := range page.Objects {
			if obj.Extension != "pdf" {
				t.Errorf("filter let through %q", obj.Key)
			}
		}
		matched += len(page.Objects)
		token = page.NextToken
	}
	if matched != 5 {
		t.Errorf("filter matched %d objects, want 5", matched)
	}

	// Filter forms are interchangeable: "pdf", ".pdf", "PDF".
	for _, form := range []string{"pdf", ".pdf", "PDF"} {
		listing, err := p.List(ctx, "photos", ListQuery{Extension: form, Limit: 1000})
		if err != nil {
			t.Fatalf("filter %q: %v", form, err)
		}
		if len(listing.Objects) != 5 {
			t.Errorf("filter %q matched %d, want 5", form, len(listing.Objects))
		}
	}
}

func TestListLimitClamped(t *testing.T) {
	p, backend := newTestProvider(t, "photos")
	fillBucket(t, backend, "photos", 3, "obj-%04d.png")

	// Oversized and non-positive limits fall back to policy instead of
	// erroring.
	for _, limit := range []int{-5, 0, 1 << 20} {
		listing, err := p.List(context.Background(), "photos", ListQuery{Limit: limit})
		if err != nil {
			t.Fatalf("limit %d: %v", limit, err)
		}
		if len(listing.Objects) != 3 {
			t.Errorf("limit %d returned %d objects, want 3", limit, len(listing.Objects))
		}
	}
}

func TestForEachObject(t *testing.T) {
	_, backend := newTestProvider(t, "photos")
	fillBucket(t, backend, "photos", 137, "obj-%04d.png")

	// Cap the page size so the walk has to cross page boundaries.
	cfg := &config.EnvConfig{}
	cfg.Listing.MaxPageSize = 50
	p := NewProvider(cfg, backend)

	var walked int
	err := p.ForEachObject(context.Background(), "photos", "", func(obj storage.ObjectInfo) (bool, error) {
		walked++
		return true, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if walked != 137 {
		t.Errorf("walked %d objects, want 137", walked)
	}

	// Early stop.
	walked = 0
	err = p.ForEachObject(context.Background(), "photos", "", func(obj storage.ObjectInfo) (bool, error) {
		walked++
		return walked < 10, nil
	})
	if err != nil {
		t.Fatalf("walk with stop: %v", err)
	}
	if walked != 10 {
		t.Errorf("walked %d objects after stop, want 10", walked)
	}
}
