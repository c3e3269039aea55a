package models

import "time"

type SessionState string

const (
	StateEmpty     SessionState = "empty"
	StateUploaded  SessionState = "uploaded"
	StateCropping  SessionState = "cropping"
	StateGenerated SessionState = "generated"
)

// Session tracks one uploaded image through the crop flow.
type Session struct {
	AssetID      string       `json:"asset_id"`
	State        SessionState `json:"state"`
	SourceWidth  int          `json:"source_width"`
	SourceHeight int          `json:"source_height"`
	ContentType  string       `json:"content_type"`
	Crop         *CropRect    `json:"crop,omitempty"`
	ResultID     string       `json:"result_id,omitempty"`
	ResultURL    string       `json:"result_url,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (s *Session) SourceSize() Size {
	return Size{Width: float64(s.SourceWidth), Height: float64(s.SourceHeight)}
}
