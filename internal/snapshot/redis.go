package snapshot

import (
	"context"
	"fmt"

	pkgredis "github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/redis"
)

// RedisStore keeps the snapshot under a single Redis key.
type RedisStore struct {
	client *pkgredis.Client
	key    string
}

// NewRedisStore stores the snapshot at "<prefix>:<name>".
func NewRedisStore(client *pkgredis.Client, prefix, name string) *RedisStore {
	return &RedisStore{client: client, key: prefix + ":" + name}
}

func (s *RedisStore) Name() string {
	return "redis:" + s.key
}

func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, found, err := s.client.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot key %s: %w", s.key, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Store(ctx, s.key, data); err != nil {
		return writeFailure("storing snapshot key "+s.key, err)
	}
	return nil
}
