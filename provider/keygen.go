package provider

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Extension cap includes the leading dot.
const maxExtensionLen = 16

// NewObjectKey returns a storage key that is unique, unguessable and
// lexically ordered by creation time: a UUIDv7 plus a sanitized copy of
// the original file extension. The client-supplied name contributes
// nothing else to the key.
func NewObjectKey(originalName string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate object id: %w", err)
	}
	return id.String() + safeExtension(originalName), nil
}

// safeExtension keeps a short, purely alphanumeric extension and
// discards anything else, so hostile names cannot smuggle path or
// control characters into a key.
func safeExtension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtensionLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
