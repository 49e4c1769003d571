package provider

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMediaType reports content outside the configured
// allow-list. It carries no hint of what was detected; the detected
// type is for server-side logs only.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// BucketNameError names the exact naming rule a bucket name violated.
type BucketNameError struct {
	Name   string
	Reason string
}

func (e *BucketNameError) Error() string {
	return fmt.Sprintf("invalid bucket name %q: %s", e.Name, e.Reason)
}
