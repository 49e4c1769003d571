package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors every Backend implementation maps its native failures
// onto. Callers branch on these with errors.Is and never on
// backend-specific types.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrBucketExists       = errors.New("bucket already exists")
	ErrBucketNotEmpty     = errors.New("bucket not empty")
	ErrTimeout            = errors.New("operation timed out")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// OpError records the operation and target that failed alongside the
// mapped cause.
type OpError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
