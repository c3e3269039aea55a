package models

// Asset references an image held by the remote asset store.
type Asset struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
