// Package geometry maps crop rectangles between the on-screen preview, the
// full-resolution source image and the fixed-size avatar slot.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/phambaophuc/flag-avatar/internal/models"
)

var ErrEmptySource = errors.New("source image has no area")

// Rounding decides how fractional pixel offsets become integer offsets.
// Offsets are only ever rounded once, at the very end, so drift is bounded by
// one pixel per axis.
type Rounding int

const (
	// RoundFloor truncates toward zero for the non-negative offsets we deal with.
	RoundFloor Rounding = iota
	RoundNearest
)

func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "floor":
		return RoundFloor, nil
	case "nearest", "round":
		return RoundNearest, nil
	default:
		return RoundFloor, fmt.Errorf("unknown rounding policy %q", s)
	}
}

func (r Rounding) Apply(v float64) int {
	if r == RoundNearest {
		return int(math.Round(v))
	}
	return int(math.Floor(v))
}

func (r Rounding) String() string {
	if r == RoundNearest {
		return "nearest"
	}
	return "floor"
}

// Placement is the whole-pixel source square to cut out and the side it is
// then resized to. Memory is bounded by the source, however small the crop.
type Placement struct {
	Left         int
	Top          int
	Side         int
	OutputSide   int
	SourceWidth  int
	SourceHeight int
}

// ToSource scales a preview-space crop into source space:
// sourceCoord = previewCoord * sourceWidth / previewWidth.
// One factor, taken from the width, serves both axes so a square stays square.
// A zero crop side is replaced by defaultSide. A zero preview size means the
// crop is already in source space.
func ToSource(crop models.CropRect, preview, source models.Size, defaultSide float64) models.CropRect {
	if crop.Width <= 0 {
		crop.Width = defaultSide
	}
	if crop.Height <= 0 {
		crop.Height = defaultSide
	}

	if preview.IsZero() {
		return crop
	}

	scale := source.Width / preview.Width

	return models.CropRect{
		X:      crop.X * scale,
		Y:      crop.Y * scale,
		Width:  crop.Width * scale,
		Height: crop.Height * scale,
	}
}

// Clamp squares the crop to its shorter side and shifts it inside the source.
func Clamp(crop models.CropRect, source models.Size) models.CropRect {
	side := math.Min(crop.Width, crop.Height)
	side = math.Min(side, math.Min(source.Width, source.Height))
	if side < 0 {
		side = 0
	}

	x := math.Max(0, math.Min(crop.X, source.Width-side))
	y := math.Max(0, math.Min(crop.Y, source.Height-side))

	return models.CropRect{X: x, Y: y, Width: side, Height: side}
}

// boundsEpsilon absorbs float error from preview scaling at the far edges.
const boundsEpsilon = 1e-6

// Place maps a source-space crop onto an outputSide x outputSide slot. The
// crop must lie inside the source. Its side is floored to whole pixels, with a
// minimum of one; offsets follow the rounding policy.
func Place(crop models.CropRect, source models.Size, outputSide int, rounding Rounding) (Placement, error) {
	if source.IsZero() {
		return Placement{}, ErrEmptySource
	}
	if outputSide <= 0 {
		return Placement{}, fmt.Errorf("invalid output side %d", outputSide)
	}

	side := math.Min(crop.Width, crop.Height)
	if side <= 0 {
		return Placement{}, fmt.Errorf("invalid crop side %.2f", side)
	}
	if crop.X < 0 || crop.Y < 0 ||
		crop.X+side > source.Width+boundsEpsilon ||
		crop.Y+side > source.Height+boundsEpsilon {
		return Placement{}, fmt.Errorf("crop %.2f at (%.2f,%.2f) outside %.0fx%.0f",
			side, crop.X, crop.Y, source.Width, source.Height)
	}

	width, height := int(source.Width), int(source.Height)
	pixels := min(max(1, int(math.Floor(side))), width, height)

	return Placement{
		Left:         max(0, min(rounding.Apply(crop.X), width-pixels)),
		Top:          max(0, min(rounding.Apply(crop.Y), height-pixels)),
		Side:         pixels,
		OutputSide:   outputSide,
		SourceWidth:  width,
		SourceHeight: height,
	}, nil
}

// Fits reports whether the cut square lies inside the source.
func (p Placement) Fits() bool {
	return p.Side > 0 && p.Left >= 0 && p.Top >= 0 &&
		p.Left+p.Side <= p.SourceWidth &&
		p.Top+p.Side <= p.SourceHeight
}
