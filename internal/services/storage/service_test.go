package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "avatars"

// fakeBucket serves the Supabase Storage object endpoints for one bucket.
type fakeBucket struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	requests     []string
	authHeaders  []string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	objectPrefix := "/storage/v1/object/" + testBucket + "/"
	publicPrefix := "/storage/v1/object/public/" + testBucket + "/"

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if !strings.HasPrefix(r.URL.Path, publicPrefix) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/object/list/"+testBucket:
		w.Write([]byte("[]"))

	case r.Method == http.MethodDelete && r.URL.Path == "/storage/v1/object/"+testBucket:
		if r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			w.Write([]byte(`{"message":"expected application/json"}`))
			return
		}
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"message":"bad body"}`, http.StatusBadRequest)
			return
		}
		for _, key := range body.Prefixes {
			delete(f.objects, key)
		}
		w.Write([]byte("[]"))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, publicPrefix):
		f.serveObject(w, strings.TrimPrefix(r.URL.Path, publicPrefix))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, objectPrefix):
		f.serveObject(w, strings.TrimPrefix(r.URL.Path, objectPrefix))

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, objectPrefix):
		key := strings.TrimPrefix(r.URL.Path, objectPrefix)
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.contentTypes[key] = r.Header.Get("Content-Type")
		w.Write([]byte(`{"Key":"` + testBucket + "/" + key + `"}`))

	default:
		http.Error(w, `{"message":"unexpected request"}`, http.StatusBadRequest)
	}
}

func (f *fakeBucket) serveObject(w http.ResponseWriter, key string) {
	data, ok := f.objects[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
		return
	}
	w.Write(data)
}

func (f *fakeBucket) object(key string) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, f.contentTypes[key], ok
}

func (f *fakeBucket) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestStorage(t *testing.T) (*StorageService, *fakeBucket, *httptest.Server) {
	t.Helper()
	bucket := newFakeBucket()
	server := httptest.NewServer(bucket)
	t.Cleanup(server.Close)

	cfg := &config.Config{}
	cfg.Supabase = config.SupabaseConfig{URL: server.URL, KEY: "test-key", BUCKET: testBucket}

	s, err := NewStorageService(cfg)
	require.NoError(t, err)
	return s, bucket, server
}

func TestNewStorageServiceRequiresConfig(t *testing.T) {
	_, err := NewStorageService(&config.Config{})
	assert.Error(t, err)
}

func TestUploadFetchDelete(t *testing.T) {
	ctx := context.Background()
	s, bucket, server := newTestStorage(t)
	original := []byte("\x89PNG original bytes")

	asset, err := s.Upload(ctx, original, "image/png")
	require.NoError(t, err)
	assert.Len(t, asset.ID, 32)
	assert.Equal(t, server.URL+"/storage/v1/object/public/avatars/originals/"+asset.ID, asset.URL)
	assert.Equal(t, asset.URL, s.GetURL(asset.ID))

	stored, contentType, ok := bucket.object("originals/" + asset.ID)
	require.True(t, ok)
	assert.Equal(t, original, stored)
	assert.Equal(t, "image/png", contentType)

	// the public URL serves the uploaded bytes
	resp, err := http.Get(asset.URL)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, original, body)

	downloaded, err := s.Download(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, original, downloaded)

	require.NoError(t, s.Delete(ctx, asset.ID))
	_, _, ok = bucket.object("originals/" + asset.ID)
	assert.False(t, ok)

	_, err = s.Download(ctx, asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		"POST /storage/v1/object/avatars/originals/" + asset.ID,
		"GET /storage/v1/object/public/avatars/originals/" + asset.ID,
		"GET /storage/v1/object/avatars/originals/" + asset.ID,
		"DELETE /storage/v1/object/avatars",
		"GET /storage/v1/object/avatars/originals/" + asset.ID,
	}, bucket.requestLog())
	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	require.Len(t, bucket.authHeaders, 4)
	for _, auth := range bucket.authHeaders {
		assert.Equal(t, "Bearer test-key", auth)
	}
}

func TestUploadResult(t *testing.T) {
	s, bucket, server := newTestStorage(t)

	asset, err := s.UploadResult(context.Background(), []byte("avatar png"))
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/storage/v1/object/public/avatars/avatars/"+asset.ID+".png", asset.URL)

	stored, contentType, ok := bucket.object("avatars/" + asset.ID + ".png")
	require.True(t, ok)
	assert.Equal(t, []byte("avatar png"), stored)
	assert.Equal(t, "image/png", contentType)
}

func TestUploadHeadersDoNotLeak(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Upload(ctx, []byte("jpeg"), "image/jpeg")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// the delete body is JSON and must still be sent as such
	asset, err := s.Upload(ctx, []byte("png"), "image/png")
	require.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, asset.ID))
}

func TestCanceledContext(t *testing.T) {
	s, bucket, _ := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Download(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, "abc"), context.Canceled)
	assert.Empty(t, bucket.requestLog())
}

func TestHealthCheck(t *testing.T) {
	s, _, server := newTestStorage(t)
	assert.Equal(t, "healthy", s.HealthCheck(context.Background())["supabase"])

	server.Close()
	assert.Contains(t, s.HealthCheck(context.Background())["supabase"], "unhealthy")
}
