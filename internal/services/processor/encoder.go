package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Decode reads an upload, honoring EXIF orientation so that dimensions match
// what the browser shows.
func (p *ImageProcessor) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func (p *ImageProcessor) EncodePNG(img image.Image) (*bytes.Buffer, error) {
	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buffer, nil
}
