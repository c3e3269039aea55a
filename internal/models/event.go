package models

import "time"

const (
	EventUploaded  = "avatar.uploaded"
	EventGenerated = "avatar.generated"
	EventDiscarded = "avatar.discarded"
)

type AvatarEvent struct {
	Type       string    `json:"type"`
	AssetID    string    `json:"asset_id"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
