package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 128

// RedisKV is a [KV] backed by Redis. Every key is stored under namespace + ":" + key,
// so several hosts can share one Redis without colliding.
type RedisKV struct {
	redis     redis.UniversalClient
	namespace string
}

// NewRedisKV creates a [RedisKV]. An empty namespace defaults to "gs".
func NewRedisKV(client redis.UniversalClient, namespace string) *RedisKV {
	if namespace == "" {
		namespace = "gs"
	}
	return &RedisKV{redis: client, namespace: namespace}
}

func (r *RedisKV) key(key string) string {
	return r.namespace + ":" + key
}

// Get returns the value stored under key. A missing key is reported as ok=false
// with a nil error.
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return v, true, nil
}

// Set stores value under key without expiry; session lifetime is enforced by the
// validator, not by storage TTLs.
func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (r *RedisKV) Remove(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// RemoveMatching deletes every key starting with prefix.
//
// ATOMICITY NOTE: keys are discovered with SCAN and deleted per batch, so a key
// written concurrently with the purge may survive it. The purge runs on sign-out and
// on inconsistent-state repair, where no provider writes are expected.
func (r *RedisKV) RemoveMatching(ctx context.Context, prefix string) (int, error) {
	pattern := r.key(escapeGlob(prefix)) + "*"

	removed := 0
	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if len(keys) > 0 {
			n, err := r.redis.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
