package models

// CropRect is a crop rectangle in either preview or source pixel space.
// Width and Height are expected to be equal; values may be fractional.
type CropRect struct {
	X      float64 `json:"x" form:"x"`
	Y      float64 `json:"y" form:"y"`
	Width  float64 `json:"width" form:"width"`
	Height float64 `json:"height" form:"height"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// CropInput is what a client submits when committing a crop. Preview is the
// displayed size of the image the crop was drawn on; a zero Preview means the
// crop is already in source space.
type CropInput struct {
	Crop    CropRect
	Preview Size
}
