package storage

import (
	"context"
	"errors"
	"sync"

	"cloakswap/pkg/platform/sentinel"
	shardedsync "cloakswap/pkg/platform/sync"
)

// MemoryStore keeps records in process memory. It backs unit tests and the
// file store.
type MemoryStore struct {
	mu      sync.RWMutex
	locks   *shardedsync.ShardedMutex
	records map[Namespace]map[string][]byte
	closed  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		locks:   shardedsync.NewShardedMutex(),
		records: make(map[Namespace]map[string][]byte),
	}
}

func lockKey(ns Namespace, key string) string {
	return string(ns) + "/" + key
}

func (s *MemoryStore) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, Unavailable("memory get", sentinel.ErrUnavailable)
	}
	v, ok := s.records[ns][key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(v), nil
}

func (s *MemoryStore) Put(_ context.Context, ns Namespace, key string, value []byte) error {
	return s.locks.Do(lockKey(ns, key), func() error {
		return s.write(ns, key, value)
	})
}

func (s *MemoryStore) Delete(_ context.Context, ns Namespace, key string) error {
	return s.locks.Do(lockKey(ns, key), func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return Unavailable("memory delete", sentinel.ErrUnavailable)
		}
		delete(s.records[ns], key)
		return nil
	})
}

func (s *MemoryStore) Update(ctx context.Context, ns Namespace, key string, fn UpdateFunc) error {
	return s.locks.Do(lockKey(ns, key), func() error {
		current, err := s.Get(ctx, ns, key)
		exists := err == nil
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return s.write(ns, key, next)
	})
}

func (s *MemoryStore) Keys(_ context.Context, ns Namespace) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, Unavailable("memory keys", sentinel.ErrUnavailable)
	}
	keys := make([]string, 0, len(s.records[ns]))
	for k := range s.records[ns] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Unavailable("memory ping", sentinel.ErrUnavailable)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// snapshot copies every record; used by the file store to persist.
func (s *MemoryStore) snapshot() map[Namespace]map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Namespace]map[string][]byte, len(s.records))
	for ns, recs := range s.records {
		m := make(map[string][]byte, len(recs))
		for k, v := range recs {
			m[k] = clone(v)
		}
		out[ns] = m
	}
	return out
}

func (s *MemoryStore) write(ns Namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Unavailable("memory write", sentinel.ErrUnavailable)
	}
	recs, ok := s.records[ns]
	if !ok {
		recs = make(map[string][]byte)
		s.records[ns] = recs
	}
	recs[key] = clone(value)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
