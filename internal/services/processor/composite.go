package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	flagBlue   = color.NRGBA{R: 0x00, G: 0x57, B: 0xB7, A: 0xFF}
	flagYellow = color.NRGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
)

// Composite masks the flag background into a circle and then lays the avatar
// over its center. Masking comes first so the avatar cannot bleed past the rim.
func (p *ImageProcessor) Composite(avatar image.Image) (*image.NRGBA, error) {
	b := avatar.Bounds()
	if b.Dx() != p.outputSize || b.Dy() != p.outputSize {
		return nil, fmt.Errorf("avatar is %dx%d, want %dx%d", b.Dx(), b.Dy(), p.outputSize, p.outputSize)
	}

	background := imaging.Fill(p.flag, p.finalSize, p.finalSize, imaging.Center, imaging.Lanczos)
	background = applyMask(background, p.flagMask)

	offset := (p.finalSize - p.outputSize) / 2
	return imaging.Overlay(background, avatar, image.Pt(offset, offset), 1.0), nil
}

// DefaultFlag draws a two-stripe flag, blue over yellow.
func DefaultFlag(size int) *image.NRGBA {
	flag := imaging.New(size, size, flagYellow)
	top := imaging.New(size, size/2, flagBlue)
	return imaging.Paste(flag, top, image.Pt(0, 0))
}

func LoadFlag(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load flag %s: %w", path, err)
	}
	return img, nil
}
