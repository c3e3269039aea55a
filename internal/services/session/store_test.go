package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()}, DefaultRedisOptions)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func testStores(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  redisStore,
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)

			s := &models.Session{
				AssetID:      "abc",
				State:        models.StateUploaded,
				SourceWidth:  1000,
				SourceHeight: 800,
				ContentType:  "image/png",
				UpdatedAt:    time.Now().UTC().Truncate(time.Second),
			}
			require.NoError(t, store.Save(ctx, s))

			got, err := store.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, s.State, got.State)
			assert.Equal(t, 1000, got.SourceWidth)
			assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))

			// the returned session is a copy
			got.State = models.StateGenerated
			again, err := store.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, models.StateUploaded, again.State)

			require.NoError(t, store.Delete(ctx, "abc"))
			_, err = store.Get(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NotEmpty(t, store.HealthCheck(ctx))
		})
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, &models.Session{AssetID: "ttl", State: models.StateUploaded}))
	assert.Equal(t, time.Hour, mr.TTL(KeyPrefix+"ttl"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisClientOptions(t *testing.T) {
	client := NewRedisClient(config.RedisConfig{Addr: "localhost:6390", DB: 2}, RedisOptions{MaxRetries: 1, Timeout: 2 * time.Second})
	t.Cleanup(func() { client.Close() })

	opts := client.Options()
	assert.Equal(t, "localhost:6390", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 1, opts.MaxRetries)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
}

func TestRedisStoreHealth(t *testing.T) {
	store, mr := newRedisStore(t)
	assert.Equal(t, "healthy", store.HealthCheck(context.Background())["redis"])

	mr.Close()
	assert.Contains(t, store.HealthCheck(context.Background())["redis"], "unhealthy")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &models.Session{AssetID: "a", State: models.StateUploaded}))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// saving another session evicts the stale one
	require.NoError(t, store.Save(ctx, &models.Session{AssetID: "b", State: models.StateUploaded}))
	assert.Len(t, store.sessions, 1)
}
