// Package session keeps admin login state in server-side sessions.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "sess:"

// RedisStorage is a fiber.Storage backed by Redis, so sessions survive
// restarts and are shared between processes.
type RedisStorage struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

var _ fiber.Storage = (*RedisStorage)(nil)

// NewRedisStorage wraps an existing client. The client is owned by the caller;
// Close does not close it.
func NewRedisStorage(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: defaultKeyPrefix, timeout: 2 * time.Second}
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns the stored value, or nil if the key does not exist.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

// Set stores val for exp; a zero exp keeps the key until deleted.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

// Reset removes every session key.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStorage) Close() error {
	return nil
}
