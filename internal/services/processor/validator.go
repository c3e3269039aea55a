package processor

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/phambaophuc/flag-avatar/pkg/utils"
)

// Upload is a validated upload, read fully into memory.
type Upload struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

func (p *ImageProcessor) ValidateImage(file multipart.File, maxSize int64) (*Upload, error) {
	// Check file size
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect upload: %w", err)
	}
	if size > maxSize {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum allowed size %d", ErrInvalidImage, size, maxSize)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to inspect upload: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}

	contentType := http.DetectContentType(data)
	if !utils.IsValidImageType(contentType) {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}

	// Decode fully so the recorded size is the oriented one
	img, err := p.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Upload{
		Data:        data,
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}
