package provider

import (
	"bytes"
	"context"
	"testing"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/infra/storage"
)

// Minimal but genuine magic-byte prefixes for the content sniffer.
var (
	pngPayload = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
		[]byte{0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, 6, 0, 0, 0}...)
	jpegPayload = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pdfPayload  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	gifPayload  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
)

func newTestProvider(t *testing.T, buckets ...string) (*Provider, *storage.MemoryBackend) {
	t.Helper()

	backend := storage.NewMemoryBackend()
	for _, bucket := range buckets {
		if err := backend.CreateBucket(context.Background(), bucket); err != nil {
			t.Fatalf("create bucket %s: %v", bucket, err)
		}
	}

	cfg := &config.EnvConfig{}
	cfg.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

	return NewProvider(cfg, backend), backend
}

// closeTracker wraps a payload as the io.ReadSeekCloser an upload
// expects and records whether the orchestrator closed it.
type closeTracker struct {
	*bytes.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newUploadRequest(name string, payload []byte) (*UploadRequest, *closeTracker) {
	tracker := &closeTracker{Reader: bytes.NewReader(payload)}
	return &UploadRequest{
		OriginalName: name,
		Size:         int64(len(payload)),
		Content:      tracker,
	}, tracker
}
