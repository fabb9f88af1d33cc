package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/sentinel"
)

// FileStore is a MemoryStore persisted to a single JSON document after every
// write. The document maps namespace -> key -> JSON value, so values must be
// valid JSON. Writes go to a temp file that is renamed into place, so a crash
// never leaves a half-written document.
type FileStore struct {
	mem  *MemoryStore
	path string
	// writeMu serializes writers so the document on disk and memory move
	// together.
	writeMu sync.Mutex
}

type fileDocument map[Namespace]map[string]json.RawMessage

// OpenFile loads path, creating an empty store when the file does not exist.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{mem: NewMemory(), path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, Unavailable("file open", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Corrupt("*", path, err)
	}
	for ns, recs := range doc {
		for k, v := range recs {
			if err := s.mem.write(ns, k, v); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	return s.mem.Get(ctx, ns, key)
}

func (s *FileStore) Put(ctx context.Context, ns Namespace, key string, value []byte) error {
	if !json.Valid(value) {
		return dErrors.New(dErrors.CodeInvalidInput, "file store values must be JSON")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commit(ns, key, value)
}

func (s *FileStore) Delete(ctx context.Context, ns Namespace, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.mem.Ping(ctx); err != nil {
		return err
	}
	if err := s.persist(ns, key, nil); err != nil {
		return err
	}
	return s.mem.Delete(ctx, ns, key)
}

func (s *FileStore) Update(ctx context.Context, ns Namespace, key string, fn UpdateFunc) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.mem.Get(ctx, ns, key)
	exists := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	next, err := fn(current, exists)
	if err != nil || next == nil {
		return err
	}
	if !json.Valid(next) {
		return dErrors.New(dErrors.CodeInvalidInput, "file store values must be JSON")
	}
	return s.commit(ns, key, next)
}

// commit writes the document with the new value first and only then applies
// it in memory, so a failed write leaves no trace. Callers hold writeMu.
func (s *FileStore) commit(ns Namespace, key string, value []byte) error {
	if err := s.mem.Ping(context.Background()); err != nil {
		return err
	}
	if err := s.persist(ns, key, value); err != nil {
		return err
	}
	return s.mem.write(ns, key, value)
}

func (s *FileStore) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	return s.mem.Keys(ctx, ns)
}

func (s *FileStore) Ping(ctx context.Context) error {
	if err := s.mem.Ping(ctx); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return Unavailable("file ping", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return s.mem.Close()
}

// persist writes the current document with ns/key set to value, or removed
// when value is nil. Callers hold writeMu.
func (s *FileStore) persist(ns Namespace, key string, value []byte) error {
	doc := make(fileDocument)
	for n, recs := range s.mem.snapshot() {
		m := make(map[string]json.RawMessage, len(recs)+1)
		for k, v := range recs {
			m[k] = v
		}
		doc[n] = m
	}
	if value == nil {
		delete(doc[ns], key)
	} else {
		if doc[ns] == nil {
			doc[ns] = make(map[string]json.RawMessage)
		}
		doc[ns][key] = value
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode file store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return Unavailable("file persist", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return Unavailable("file persist", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return Unavailable("file persist", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return Unavailable("file persist", err)
	}
	return nil
}
