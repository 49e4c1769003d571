package provider

import (
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// Content classification trusts bytes, never client-declared names or
// headers.
const sniffWindow = 512

// DetectContentType reads at most the first sniffWindow bytes of r,
// rewinds it to the start, and returns the detected media type. Streams
// shorter than the window classify from whatever is available.
func DetectContentType(r io.ReadSeeker) (*mimetype.MIME, error) {
	buf := make([]byte, sniffWindow)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read content prefix: %w", err)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind content stream: %w", err)
	}

	return mimetype.Detect(buf[:n]), nil
}

func (p *Provider) typeAllowed(mt *mimetype.MIME) bool {
	for _, allowed := range p.allowedTypes {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}
