package service

import (
	"fmt"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/domain"
)

// DefaultMaxFileSize is the per-file ceiling (5 MiB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// allowedContentTypes is the fixed set of accepted declared types.
var allowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// IngestValidator checks declared upload metadata. It trusts the declared
// content type and never inspects the bytes.
type IngestValidator struct {
	maxSize int64
}

// NewIngestValidator returns a validator with the given ceiling. Values outside
// (0, DefaultMaxFileSize] fall back to DefaultMaxFileSize.
func NewIngestValidator(maxSize int64) *IngestValidator {
	if maxSize <= 0 || maxSize > DefaultMaxFileSize {
		maxSize = DefaultMaxFileSize
	}
	return &IngestValidator{maxSize: maxSize}
}

// MaxSize returns the byte ceiling.
func (v *IngestValidator) MaxSize() int64 {
	return v.maxSize
}

func (v *IngestValidator) Validate(contentType string, size int64) error {
	if !allowedContentType(contentType) {
		return fmt.Errorf("%w: %q, allowed types: %s", domain.ErrUnsupportedMediaType, contentType, strings.Join(allowedContentTypes, ", "))
	}
	if size > v.maxSize {
		return v.tooLarge(size)
	}
	return nil
}

func (v *IngestValidator) tooLarge(size int64) error {
	return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", domain.ErrPayloadTooLarge, size, v.maxSize)
}

func allowedContentType(contentType string) bool {
	for _, t := range allowedContentTypes {
		if contentType == t {
			return true
		}
	}
	return false
}
