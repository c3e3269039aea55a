package processor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/internal/services/geometry"
)

// Avatar cuts the circular avatar out of img. crop is in source space and may
// be fractional; offsets are rounded by the processor's policy. The square is
// cut from the source before it is resized.
func (p *ImageProcessor) Avatar(img image.Image, crop models.CropRect) (*image.NRGBA, error) {
	bounds := img.Bounds()
	source := models.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}

	placement, err := geometry.Place(crop, source, p.outputSize, p.rounding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCropOutOfBounds, err)
	}
	if !placement.Fits() {
		return nil, fmt.Errorf("%w: %dpx at (%d,%d) in %dx%d", ErrCropOutOfBounds,
			placement.Side, placement.Left, placement.Top,
			placement.SourceWidth, placement.SourceHeight)
	}

	region := extract(img, placement)
	resized := imaging.Resize(region, placement.OutputSide, placement.OutputSide, imaging.Lanczos)

	return applyMask(resized, p.avatarMask), nil
}

// extract cuts the placement square out of img, which may not start at the origin.
func extract(img image.Image, placement geometry.Placement) *image.NRGBA {
	rect := image.Rect(placement.Left, placement.Top, placement.Left+placement.Side, placement.Top+placement.Side)
	return imaging.Crop(img, rect.Add(img.Bounds().Min))
}
