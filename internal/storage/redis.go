package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"cloakswap/pkg/platform/sentinel"
)

const (
	defaultRedisPrefix = "cloakswap"
	redisMaxRetries    = 100
)

// RedisStore keeps each record in its own Redis string and tracks the keys of
// a namespace in a companion set. Update uses WATCH/MULTI optimistic locking
// and retries when another writer touched the key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix isolates several deployments sharing one Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis wraps an existing client. The caller owns the client's lifecycle
// unless Close is called on the store.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) recordKey(ns Namespace, key string) string {
	return s.prefix + ":kv:" + string(ns) + ":" + key
}

func (s *RedisStore) indexKey(ns Namespace) string {
	return s.prefix + ":idx:" + string(ns)
}

func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.recordKey(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, Unavailable("redis get", err)
	}
	return v, nil
}

func (s *RedisStore) Put(ctx context.Context, ns Namespace, key string, value []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(ns, key), value, 0)
		pipe.SAdd(ctx, s.indexKey(ns), key)
		return nil
	})
	if err != nil {
		return Unavailable("redis put", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(ns, key))
		pipe.SRem(ctx, s.indexKey(ns), key)
		return nil
	})
	if err != nil {
		return Unavailable("redis delete", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, ns Namespace, key string, fn UpdateFunc) error {
	rk := s.recordKey(ns, key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, rk).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists, err = false, nil
		}
		if err != nil {
			return err
		}

		next, err := fn(current, exists)
		if err != nil {
			return &callbackError{err: err}
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, next, 0)
			pipe.SAdd(ctx, s.indexKey(ns), key)
			return nil
		})
		return err
	}

	for range redisMaxRetries {
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return nil
		}
		if cbErr, ok := unwrapCallback(err); ok {
			return cbErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Unavailable("redis update", err)
	}
	return Unavailable("redis update", sentinel.ErrConflict)
}

func (s *RedisStore) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey(ns)).Result()
	if err != nil {
		return nil, Unavailable("redis keys", err)
	}
	return keys, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return Unavailable("redis ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
