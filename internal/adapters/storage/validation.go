package storage

import (
	"fmt"
	"strings"
)

// MaxObjectSize bounds a single archived document (20 MiB).
const MaxObjectSize int64 = 20 << 20

// AllowedContentTypes defines the MIME types accepted for archiving.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx != -1 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	if !AllowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks that size is positive and within MaxObjectSize.
func ValidateFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxObjectSize {
		return fmt.Errorf("file size %d exceeds maximum of %d bytes", size, MaxObjectSize)
	}
	return nil
}
