// Package provider orchestrates object uploads, downloads, listing and
// bucket lifecycle on top of a pluggable storage backend.
package provider

import (
	"time"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/infra/storage"
)

type Provider struct {
	backend storage.Backend

	uploadTimeout   time.Duration
	deleteTimeout   time.Duration
	presignExpiry   time.Duration
	allowedTypes    []string
	defaultPageSize int
	maxPageSize     int
}

var providerInstance *Provider

func NewProvider(cfg *config.EnvConfig, backend storage.Backend) *Provider {
	p := &Provider{
		backend:         backend,
		uploadTimeout:   cfg.Upload.Timeout,
		deleteTimeout:   cfg.Delete.Timeout,
		presignExpiry:   cfg.Presign.Expiry,
		allowedTypes:    cfg.Upload.AllowedTypes,
		defaultPageSize: cfg.Listing.DefaultPageSize,
		maxPageSize:     cfg.Listing.MaxPageSize,
	}

	if p.uploadTimeout <= 0 {
		p.uploadTimeout = 60 * time.Second
	}
	if p.deleteTimeout <= 0 {
		p.deleteTimeout = 5 * time.Second
	}
	if p.presignExpiry <= 0 {
		p.presignExpiry = 15 * time.Minute
	}
	maxExpiry := cfg.Presign.MaxExpiry
	if maxExpiry <= 0 || maxExpiry > 7*24*time.Hour {
		// S3 signature v4 refuses anything above seven days.
		maxExpiry = 7 * 24 * time.Hour
	}
	if p.presignExpiry > maxExpiry {
		p.presignExpiry = maxExpiry
	}
	if len(p.allowedTypes) == 0 {
		p.allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
	}
	if p.defaultPageSize <= 0 {
		p.defaultPageSize = 100
	}
	if p.maxPageSize <= 0 {
		p.maxPageSize = 1000
	}

	return p
}

// PresignExpiry reports the effective link lifetime after clamping.
func (p *Provider) PresignExpiry() time.Duration {
	return p.presignExpiry
}

func InitProvider(cfg *config.Config, backend storage.Backend) *Provider {
	if providerInstance != nil {
		return providerInstance
	}
	providerInstance = NewProvider(cfg.EnvConfig, backend)
	return providerInstance
}

func GetProvider() *Provider {
	if providerInstance == nil {
		panic("Provider not initialized. Call InitProvider() first.")
	}
	return providerInstance
}
