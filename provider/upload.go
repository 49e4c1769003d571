package provider

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// UploadRequest carries one pending upload. Content must be open and
// positioned at the start; the orchestrator always closes it, whether
// the upload succeeds, fails validation or is canceled. On success Key,
// Locator, ContentType and ETag record what was stored. ContentType is
// also set when the allow-list rejects the content, so callers can log
// what was detected without it ever reaching the response.
type UploadRequest struct {
	OriginalName string
	Size         int64 // -1 when unknown
	Content      io.ReadSeekCloser

	Key         string
	Locator     string
	ContentType string
	ETag        string
}

// UploadOne classifies, keys and stores a single object under its own
// deadline, returning the stored object's locator.
func (p *Provider) UploadOne(ctx context.Context, bucket string, req *UploadRequest) (string, error) {
	defer req.Content.Close()

	if err := ValidateBucketName(bucket); err != nil {
		return "", err
	}

	mt, err := DetectContentType(req.Content)
	if err != nil {
		return "", err
	}
	req.ContentType = mt.String()
	if !p.typeAllowed(mt) {
		return "", ErrUnsupportedMediaType
	}

	key, err := NewObjectKey(req.OriginalName)
	if err != nil {
		return "", err
	}

	putCtx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()

	info, err := p.backend.PutObject(putCtx, bucket, key, req.Content, req.Size, req.ContentType)
	if err != nil {
		return "", err
	}

	req.Key = key
	req.Locator = info.Locator
	req.ETag = info.ETag
	return info.Locator, nil
}

// UploadMany stores all requests concurrently with all-or-nothing
// semantics: the first failure cancels every sibling still in flight
// and becomes the single returned error. Locators come back in request
// order. Siblings that finished before the failure stay stored; there
// is no rollback.
func (p *Provider) UploadMany(ctx context.Context, bucket string, reqs []*UploadRequest) ([]string, error) {
	if err := ValidateBucketName(bucket); err != nil {
		for _, req := range reqs {
			_ = req.Content.Close()
		}
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	locators := make([]string, len(reqs))

	for i, req := range reqs {
		g.Go(func() error {
			locator, err := p.UploadOne(gctx, bucket, req)
			if err != nil {
				return err
			}
			locators[i] = locator
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locators, nil
}
