package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestUploadOneRoundTrip(t *testing.T) {
	p, _ := newTestProvider(t, "photos")
	ctx := context.Background()

	req, tracker := newUploadRequest("holiday.png", pngPayload)
	locator, err := p.UploadOne(ctx, "photos", req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if locator == "" || locator != req.Locator {
		t.Errorf("locator = %q, request records %q", locator, req.Locator)
	}
	if req.Key == "" {
		t.Fatal("request records no key")
	}
	if !strings.HasSuffix(req.Key, ".png") {
		t.Errorf("key %q does not keep the sanitized extension", req.Key)
	}
	if !tracker.closed {
		t.Error("successful upload left its stream open")
	}

	// What went in comes back byte for byte, with the sniffed type.
	obj, err := p.DownloadOne(ctx, "photos", req.Key)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(data, pngPayload) {
		t.Errorf("round trip corrupted payload: got %d bytes, want %d", len(data), len(pngPayload))
	}
	if obj.ContentType != "image/png" {
		t.Errorf("stored content type = %q, want image/png", obj.ContentType)
	}
	if obj.Size != int64(len(pngPayload)) {
		t.Errorf("stored size = %d, want %d", obj.Size, len(pngPayload))
	}
}

func TestUploadOneUnknownBucket(t *testing.T) {
	p, _ := newTestProvider(t)

	req, tracker := newUploadRequest("a.png", pngPayload)
	_, err := p.UploadOne(context.Background(), "no-such-bucket", req)
	if err == nil {
		t.Fatal("upload into absent bucket succeeded")
	}
	if !tracker.closed {
		t.Error("failed upload left its stream open")
	}
}

func TestUploadManyPositional(t *testing.T) {
	p, _ := newTestProvider(t, "photos")
	ctx := context.Background()

	payloads := [][]byte{
		append(append([]byte{}, pngPayload...), []byte("-first")...),
		append(append([]byte{}, jpegPayload...), []byte("-second")...),
		append(append([]byte{}, pdfPayload...), []byte("-third")...),
	}
	reqs := make([]*UploadRequest, len(payloads))
	for i, payload := range payloads {
		reqs[i], _ = newUploadRequest(fmt.Sprintf("file-%d.bin", i), payload)
	}

	locators, err := p.UploadMany(ctx, "photos", reqs)
	if err != nil {
		t.Fatalf("upload many: %v", err)
	}
	if len(locators) != len(reqs) {
		t.Fatalf("got %d locators, want %d", len(locators), len(reqs))
	}

	for i, req := range reqs {
		if locators[i] != req.Locator {
			t.Errorf("locator %d = %q, request records %q", i, locators[i], req.Locator)
		}

		obj, err := p.DownloadOne(ctx, "photos", req.Key)
		if err != nil {
			t.Fatalf("download %d: %v", i, err)
		}
		data, err := io.ReadAll(obj.Body)
		obj.Body.Close()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !bytes.Equal(data, payloads[i]) {
			t.Errorf("slot %d holds the wrong payload", i)
		}
	}
}

// One poisoned request fails the whole batch with a single error, and
// every stream is closed regardless of how far its upload got.
func TestUploadManyAllOrNothing(t *testing.T) {
	p, _ := newTestProvider(t, "photos")

	trackers := make([]*closeTracker, 5)
	reqs := make([]*UploadRequest, 5)
	for i := range reqs {
		payload := pngPayload
		if i == 2 {
			payload = gifPayload
		}
		reqs[i], trackers[i] = newUploadRequest(fmt.Sprintf("file-%d.png", i), payload)
	}

	locators, err := p.UploadMany(context.Background(), "photos", reqs)
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("error = %v, want ErrUnsupportedMediaType", err)
	}
	if locators != nil {
		t.Errorf("failed batch still returned locators: %v", locators)
	}
	// The error names no position and no per-item outcome.
	if strings.Contains(err.Error(), "2") {
		t.Errorf("error %q hints at the failing position", err)
	}

	for i, tracker := range trackers {
		if !tracker.closed {
			t.Errorf("stream %d left open after failed batch", i)
		}
	}
}

func TestUploadManyInvalidBucketClosesAll(t *testing.T) {
	p, _ := newTestProvider(t)

	trackers := make([]*closeTracker, 3)
	reqs := make([]*UploadRequest, 3)
	for i := range reqs {
		reqs[i], trackers[i] = newUploadRequest("a.png", pngPayload)
	}

	_, err := p.UploadMany(context.Background(), "Bad_Name", reqs)
	var nameErr *BucketNameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("error = %v, want *BucketNameError", err)
	}
	for i, tracker := range trackers {
		if !tracker.closed {
			t.Errorf("stream %d left open after rejected batch", i)
		}
	}
}

func TestUploadManyEmptyBatch(t *testing.T) {
	p, _ := newTestProvider(t, "photos")

	locators, err := p.UploadMany(context.Background(), "photos", nil)
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(locators) != 0 {
		t.Errorf("empty batch returned %d locators", len(locators))
	}
}
