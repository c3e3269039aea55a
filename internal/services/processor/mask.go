package processor

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
)

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

// circleMask rasterizes an anti-aliased filled circle of diameter side.
func circleMask(side int) *image.Alpha {
	r := float32(side) / 2
	cx, cy := r, r
	k := r * kappa

	z := vector.NewRasterizer(side, side)
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, side, side))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// applyMask keeps img only where mask is set (destination-in).
func applyMask(img image.Image, mask *image.Alpha) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.DrawMask(dst, dst.Bounds(), img, bounds.Min, mask, image.Point{}, draw.Src)
	return dst
}
