package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps drafts as JSON strings under "<prefix>:<user>:<event>".
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "draft"
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *RedisStore) key(k Key) string { return s.prefix + ":" + k.String() }

func (s *RedisStore) Load(ctx context.Context, k Key) (*Draft, error) {
	bs, err := s.rdb.Get(ctx, s.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(bs, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", k, err)
	}
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, k Key, d *Draft) error {
	d.UpdatedAt = time.Now().UTC()
	bs, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(k), bs, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, k Key) error {
	return s.rdb.Del(ctx, s.key(k)).Err()
}
