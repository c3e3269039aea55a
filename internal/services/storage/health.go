package storage

import (
	"context"

	storage_go "github.com/supabase-community/storage-go"
)

// HealthCheck checks Supabase
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	_, err := s.sbClient.ListFiles(s.bucket, originalsFolder, storage_go.FileSearchOptions{})
	if err != nil {
		status["supabase"] = "unhealthy: " + err.Error()
	} else {
		status["supabase"] = "healthy"
	}

	return status
}
