package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IsValidImageType checks if content type is an image we can decode
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// NewAssetID returns an identifier that is safe inside a single URL path segment.
func NewAssetID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValidAssetID rejects anything that could escape a storage folder.
func IsValidAssetID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// AttachmentFilename names a downloaded avatar after the moment it was made.
func AttachmentFilename(t time.Time) string {
	return fmt.Sprintf("uava-%d.png", t.UnixMilli())
}
