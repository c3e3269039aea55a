package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

type apiError struct {
	StatusCode interface{} `json:"statusCode"`
	Error      string      `json:"error"`
	Message    string      `json:"message"`
}

// classifyDownload maps storage API failures to ErrNotFound where they mean a
// missing object. The API may answer with a JSON error document instead of a
// transport error, so the body is inspected too.
func classifyDownload(data []byte, err error) ([]byte, error) {
	if err != nil {
		var storageErr *storage_go.StorageError
		if errors.As(err, &storageErr) && storageErr.Status == http.StatusNotFound || isNotFound(err.Error()) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNotFound
	}
	if trimmed[0] != '{' {
		return data, nil
	}

	var apiErr apiError
	if json.Unmarshal(trimmed, &apiErr) != nil || (apiErr.Error == "" && apiErr.Message == "") {
		return data, nil
	}

	detail := fmt.Sprintf("%v %s %s", apiErr.StatusCode, apiErr.Error, apiErr.Message)
	if isNotFound(detail) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(detail))
	}
	return nil, fmt.Errorf("failed to download from supabase: %s", strings.TrimSpace(detail))
}

func isNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "not_found") ||
		strings.Contains(msg, "404")
}
