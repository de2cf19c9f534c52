// Package placement keeps the last drag placement in a best-effort
// key-value slot.
package placement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"adplayer/internal/types"
)

var (
	ErrInvalidStoreType = errors.New("invalid placement store type")
	ErrInvalidConfig    = errors.New("invalid placement store config")
)

type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Store holds one placement per key. Load reports ok=false when the key is
// empty.
type Store interface {
	Load(ctx context.Context, key string) (p types.Placement, ok bool, err error)
	Save(ctx context.Context, key string, p types.Placement) error
	Clear(ctx context.Context, key string) error
	Close() error
}

type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithTTL bounds how long a placement survives. Zero keeps it forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.ttl = ttl }
}

// NewStore builds a store of the given type. The redis type requires
// WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory, "":
		ttl := cfg.ttl
		if ttl <= 0 {
			ttl = cache.NoExpiration
		}
		return &memoryStore{c: cache.New(ttl, 10*time.Minute)}, nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{client: cfg.redisClient, ttl: cfg.ttl}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

type memoryStore struct {
	c *cache.Cache
}

func (s *memoryStore) Load(ctx context.Context, key string) (types.Placement, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return types.Placement{}, false, nil
	}
	p, ok := v.(types.Placement)
	return p, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, key string, p types.Placement) error {
	s.c.Set(key, p, cache.DefaultExpiration)
	return nil
}

func (s *memoryStore) Clear(ctx context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

func (s *memoryStore) Close() error {
	s.c.Flush()
	return nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Load(ctx context.Context, key string) (types.Placement, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return types.Placement{}, false, nil
	}
	if err != nil {
		return types.Placement{}, false, err
	}
	var p types.Placement
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return types.Placement{}, false, err
	}
	return p, true, nil
}

func (s *redisStore) Save(ctx context.Context, key string, p types.Placement) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, s.ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
