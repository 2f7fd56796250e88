package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix scopes every key this store writes, so a shared Redis
// instance can host unrelated data alongside the cache.
const redisKeyPrefix = "swcache"

// RedisStore is the production Store backed by Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

func redisKey(ns Namespace, key Key) string {
	return redisKeyPrefix + ":" + ns.String() + ":" + key.String()
}

// Get retrieves an entry. Returns ErrCacheMiss if the key doesn't exist.
func (s *RedisStore) Get(ctx context.Context, ns Namespace, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, redisKey(ns, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(ns.Family).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues(ns.Family).Inc()
	return &entry, nil
}

// Set stores an entry, overwriting any existing one (last-write-wins).
func (s *RedisStore) Set(ctx context.Context, ns Namespace, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// No TTL: entries live until the namespace is swept.
	if err := s.redis.Set(ctx, redisKey(ns, key), data, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWriteBytes.Add(float64(len(data)))
	return nil
}

// Delete removes an entry. Idempotent.
func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key Key) error {
	if err := s.redis.Del(ctx, redisKey(ns, key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Namespaces enumerates all namespaces holding at least one entry.
func (s *RedisStore) Namespaces(ctx context.Context) ([]Namespace, error) {
	seen := make(map[string]struct{})
	var out []Namespace

	iter := s.redis.Scan(ctx, 0, redisKeyPrefix+":*", 256).Iterator()
	for iter.Next(ctx) {
		name, ok := namespaceFromRedisKey(iter.Val())
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if ns, ok := ParseNamespace(name); ok {
			out = append(out, ns)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

// DropNamespace deletes every entry in the namespace.
func (s *RedisStore) DropNamespace(ctx context.Context, ns Namespace) error {
	match := redisKeyPrefix + ":" + ns.String() + ":*"

	iter := s.redis.Scan(ctx, 0, match, 256).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 256 {
			if err := s.redis.Del(ctx, batch...).Err(); err != nil {
				CacheErrors.WithLabelValues("drop").Inc()
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("drop").Inc()
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			CacheErrors.WithLabelValues("drop").Inc()
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// Len reports the number of entries in the namespace.
func (s *RedisStore) Len(ctx context.Context, ns Namespace) (int, error) {
	match := redisKeyPrefix + ":" + ns.String() + ":*"

	n := 0
	iter := s.redis.Scan(ctx, 0, match, 256).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

// Keys lists the key strings stored in the namespace.
func (s *RedisStore) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	prefix := redisKeyPrefix + ":" + ns.String() + ":"

	var keys []string
	iter := s.redis.Scan(ctx, 0, prefix+"*", 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.redis.Close()
}

// namespaceFromRedisKey extracts the namespace segment from a stored
// key of the form "swcache:<namespace>:<request key>".
func namespaceFromRedisKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, redisKeyPrefix+":")
	if !ok {
		return "", false
	}
	i := strings.Index(rest, ":")
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}

var _ Store = (*RedisStore)(nil)
