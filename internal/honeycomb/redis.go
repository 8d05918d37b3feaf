package honeycomb

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists documents as Redis string keys, for hives whose bees
// run as separate processes sharing one Redis server.
//
// All keys are namespaced by instance name so multiple hives can coexist on
// a single server. Redis SET is atomic, so readers never observe a partial
// document; as with the file backend, writer serialization is the caller's
// concern.
type RedisStore struct {
	rdb          *redis.Client
	instanceName string
}

// NewRedisStore creates a Redis-backed store for the named hive instance.
func NewRedisStore(redisOpts *redis.Options, instanceName string) (*RedisStore, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &RedisStore{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// key returns the namespaced Redis key for a document name.
/// Format: hive:{instance}:honeycomb:{name}
func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("hive:%s:honeycomb:%s", s.instanceName, name)
}

// Read returns the named document, or ErrNotFound if the key is absent.
func (s *RedisStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s from Redis: %w", name, err)
	}
	return data, nil
}

// Write replaces the named document.
func (s *RedisStore) Write(ctx context.Context, name string, data []byte) error {
	if err := s.rdb.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", name, err)
	}
	return nil
}
