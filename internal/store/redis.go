package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys in a shared Redis.
const DefaultRedisPrefix = "persona"

// RedisClient is the subset of redis.Cmdable used by RedisSessionStore.
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// RedisSessionStore keeps each session record in a Redis hash, one field per
// record key, and tracks known ids in a set.
//
// Each write runs in one MULTI/EXEC transaction, so readers never see a
// partly replaced record. Concurrent writers to one session must still be
// serialized by the caller (the engine holds a per-session lock).
type RedisSessionStore struct {
	client RedisClient
	prefix string
}

// NewRedisSessionStore creates a store using prefix for all keys. An empty
// prefix uses DefaultRedisPrefix.
func NewRedisSessionStore(client RedisClient, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + ":session:" + id
}

func (s *RedisSessionStore) indexKey() string {
	return s.prefix + ":sessions"
}

// Get returns the record for id, or an error wrapping ErrNotFound.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (map[string]string, error) {
	rec, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session %q: %w", id, err)
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// Put replaces the record for id. Fields absent from rec are removed.
func (s *RedisSessionStore) Put(ctx context.Context, id string, rec map[string]string) error {
	key := s.key(id)

	existing, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis read session %q: %w", id, err)
	}
	var stale []string
	for field := range existing {
		if _, ok := rec[field]; !ok {
			stale = append(stale, field)
		}
	}
	sort.Strings(stale)

	fields := make([]string, 0, len(rec))
	for f := range rec {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	values := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		values = append(values, f, rec[f])
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.HDel(ctx, key, stale...)
		}
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		pipe.SAdd(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session %q: %w", id, err)
	}
	return nil
}

// Delete removes id. Deleting an unknown id is a no-op.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session %q: %w", id, err)
	}
	return nil
}

// IDs returns every indexed session id, sorted.
func (s *RedisSessionStore) IDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
