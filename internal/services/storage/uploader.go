package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/pkg/utils"
	storage_go "github.com/supabase-community/storage-go"
)

// Upload stores a user's original image and returns its reference.
func (s *StorageService) Upload(ctx context.Context, data []byte, contentType string) (models.Asset, error) {
	id := utils.NewAssetID()
	if err := s.put(ctx, originalPath(id), data, contentType); err != nil {
		return models.Asset{}, err
	}
	return models.Asset{ID: id, URL: s.GetURL(id)}, nil
}

// UploadResult stores a finished avatar PNG.
func (s *StorageService) UploadResult(ctx context.Context, data []byte) (models.Asset, error) {
	id := utils.NewAssetID()
	key := avatarPath(id)
	if err := s.put(ctx, key, data, "image/png"); err != nil {
		return models.Asset{}, err
	}
	return models.Asset{ID: id, URL: s.publicURL(key)}, nil
}

func (s *StorageService) put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cacheControl := "31536000"
	_, err := s.uploadClient().UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to supabase: %w", err)
	}
	return nil
}

// GetURL builds the public URL of an uploaded original. The id is not checked
// against the bucket, so an unknown id yields a broken link.
func (s *StorageService) GetURL(id string) string {
	return s.publicURL(originalPath(id))
}

func (s *StorageService) publicURL(key string) string {
	return s.sbClient.GetPublicUrl(s.bucket, key).SignedURL
}

// Download fetches an uploaded original.
func (s *StorageService) Download(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.sbClient.DownloadFile(s.bucket, originalPath(id))
	return classifyDownload(data, err)
}

// Delete removes an uploaded original from Supabase Storage
func (s *StorageService) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.sbClient.RemoveFile(s.bucket, []string{originalPath(id)}); err != nil {
		return fmt.Errorf("failed to delete from supabase: %w", err)
	}
	return nil
}
