package storage

import (
	"errors"
	"path"
	"strings"

	"github.com/phambaophuc/flag-avatar/internal/config"
	storage_go "github.com/supabase-community/storage-go"
)

var ErrNotFound = errors.New("asset not found")

const (
	originalsFolder = "originals"
	avatarsFolder   = "avatars"
)

// StorageService is the remote asset store, backed by a Supabase Storage bucket.
type StorageService struct {
	sbClient *storage_go.Client
	endpoint string
	key      string
	bucket   string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.Supabase.URL == "" || cfg.Supabase.BUCKET == "" {
		return nil, errors.New("supabase url and bucket are required")
	}

	endpoint := strings.TrimSuffix(cfg.Supabase.URL, "/") + "/storage/v1"

	return &StorageService{
		sbClient: storage_go.NewClient(endpoint, cfg.Supabase.KEY, nil),
		endpoint: endpoint,
		key:      cfg.Supabase.KEY,
		bucket:   cfg.Supabase.BUCKET,
	}, nil
}

// uploadClient returns a client for a single upload. UploadFile writes its file
// options into the client's shared headers, which must not leak into other
// requests.
func (s *StorageService) uploadClient() *storage_go.Client {
	return storage_go.NewClient(s.endpoint, s.key, nil)
}

func originalPath(id string) string {
	return path.Join(originalsFolder, id)
}

func avatarPath(id string) string {
	return path.Join(avatarsFolder, id+".png")
}
