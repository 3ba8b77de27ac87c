package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDirectory keeps code -> hub address in Redis with a TTL, so codes of
// crashed hosts expire on their own.
type RedisDirectory struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDirectory(rdb *redis.Client, ttl time.Duration) *RedisDirectory {
	return &RedisDirectory{rdb: rdb, ttl: ttl}
}

func (d *RedisDirectory) key(code string) string {
	return fmt.Sprintf("session:%s:addr", code)
}

func (d *RedisDirectory) Register(ctx context.Context, code, addr string) error {
	ok, err := d.rdb.SetNX(ctx, d.key(code), addr, d.ttl).Result()
	if err != nil {
		return fmt.Errorf("register %s: %w", code, err)
	}
	if !ok {
		return ErrCodeTaken
	}
	return nil
}

func (d *RedisDirectory) Lookup(ctx context.Context, code string) (string, error) {
	addr, err := d.rdb.Get(ctx, d.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", code, err)
	}
	return addr, nil
}

func (d *RedisDirectory) Refresh(ctx context.Context, code string) error {
	ok, err := d.rdb.Expire(ctx, d.key(code), d.ttl).Result()
	if err != nil {
		return fmt.Errorf("refresh %s: %w", code, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (d *RedisDirectory) Release(ctx context.Context, code string) error {
	return d.rdb.Del(ctx, d.key(code)).Err()
}
