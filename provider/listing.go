package provider

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/blobgate/blobgate/infra/storage"
)

type ListQuery struct {
	Prefix    string
	Extension string
	Token     string
	Limit     int
}

type ObjectSummary struct {
	Key          string    `json:"key"`
	SizeBytes    int64     `json:"size_bytes"`
	Size         string    `json:"size"`
	Extension    string    `json:"extension,omitempty"`
	StorageClass string    `json:"storage_class,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

type Listing struct {
	Objects   []ObjectSummary `json:"objects"`
	NextToken string          `json:"next_token,omitempty"`
}

// List returns one page of objects in the backend's own order. The
// extension filter applies after the backend page is fetched, so a
// filtered page may hold fewer objects than the limit, or none at all,
// while NextToken still advances; callers loop until NextToken is
// empty.
func (p *Provider) List(ctx context.Context, bucket string, query ListQuery) (*Listing, error) {
	if err := ValidateBucketName(bucket); err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = p.defaultPageSize
	}
	if limit > p.maxPageSize {
		limit = p.maxPageSize
	}

	page, err := p.backend.ListObjects(ctx, bucket, storage.ListOptions{
		Prefix: query.Prefix,
		Token:  query.Token,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	ext := normalizeExtension(query.Extension)
	listing := &Listing{
		Objects:   make([]ObjectSummary, 0, len(page.Objects)),
		NextToken: page.NextToken,
	}
	for _, obj := range page.Objects {
		if ext != "" && strings.ToLower(path.Ext(obj.Key)) != ext {
			continue
		}
		listing.Objects = append(listing.Objects, summarize(obj))
	}

	return listing, nil
}

// ForEachObject walks every object in the bucket page by page, calling
// fn for each one until the bucket is exhausted, fn returns false, or
// either side fails.
func (p *Provider) ForEachObject(ctx context.Context, bucket, prefix string, fn func(storage.ObjectInfo) (bool, error)) error {
	if err := ValidateBucketName(bucket); err != nil {
		return err
	}

	var token string
	for {
		page, err := p.backend.ListObjects(ctx, bucket, storage.ListOptions{
			Prefix: prefix,
			Token:  token,
			Limit:  p.maxPageSize,
		})
		if err != nil {
			return err
		}

		for _, obj := range page.Objects {
			keep, err := fn(obj)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
		}

		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

func summarize(obj storage.ObjectInfo) ObjectSummary {
	size := obj.Size
	if size < 0 {
		size = 0
	}
	return ObjectSummary{
		Key:          obj.Key,
		SizeBytes:    obj.Size,
		Size:         humanize.IBytes(uint64(size)),
		Extension:    strings.TrimPrefix(path.Ext(obj.Key), "."),
		StorageClass: obj.StorageClass,
		LastModified: obj.LastModified,
	}
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
