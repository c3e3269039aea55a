package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/redis/go-redis/v9"
)

const KeyPrefix = "avatar_session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions tunes the client connection. Session expiry is set on the store.
type RedisOptions struct {
	MaxRetries int
	Timeout    time.Duration
}

var DefaultRedisOptions = RedisOptions{
	MaxRetries: 3,
	Timeout:    5 * time.Second,
}

func NewRedisClient(cfg config.RedisConfig, opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   opts.MaxRetries,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, assetID string) (*models.Session, error) {
	data, err := r.client.Get(ctx, KeyPrefix+assetID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session get error: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, KeyPrefix+s.AssetID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session set error: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, assetID string) error {
	if err := r.client.Del(ctx, KeyPrefix+assetID).Err(); err != nil {
		return fmt.Errorf("session delete error: %w", err)
	}
	return nil
}

func (r *RedisStore) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)
	if err := r.client.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}
	return status
}
