// Package storage is the persistence substrate shared by every store in the
// service. Records are opaque byte values addressed by (namespace, key);
// namespaces are disjoint, and every backend serializes read-modify-write
// cycles on the same key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/sentinel"
)

// Namespace partitions the key space. Each domain store owns exactly one.
type Namespace string

const (
	NamespacePoolRules   Namespace = "poolRules"
	NamespaceProfiles    Namespace = "profiles"
	NamespaceBalances    Namespace = "balances"
	NamespaceHookAudit   Namespace = "hookAudit"
	NamespacePreferences Namespace = "preferences"
)

// Namespaces lists every namespace in use.
var Namespaces = []Namespace{
	NamespacePoolRules,
	NamespaceProfiles,
	NamespaceBalances,
	NamespaceHookAudit,
	NamespacePreferences,
}

// UpdateFunc receives the current value of a key and returns its replacement.
// Returning an error aborts the update and is passed through to the caller
// unchanged. Returning a nil slice leaves the record untouched.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// Store is the key-value contract every backend implements.
//
// Get returns sentinel.ErrNotFound for a missing key. Backend failures are
// reported as unavailable domain errors (see IsUnavailable).
type Store interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	Put(ctx context.Context, ns Namespace, key string, value []byte) error
	Delete(ctx context.Context, ns Namespace, key string) error
	// Update runs fn atomically with respect to every other write on the same key.
	Update(ctx context.Context, ns Namespace, key string, fn UpdateFunc) error
	// Keys lists the keys present in ns, in no particular order.
	Keys(ctx context.Context, ns Namespace) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Unavailable wraps a backend failure so callers can tell infrastructure
// problems apart from business outcomes.
func Unavailable(op string, err error) error {
	return &dErrors.Error{
		Code:    dErrors.CodeUnavailable,
		Message: "storage unavailable",
		Err:     fmt.Errorf("%s: %w", op, errors.Join(sentinel.ErrUnavailable, err)),
	}
}

// Corrupt reports a record that exists but cannot be decoded.
func Corrupt(ns Namespace, key string, err error) error {
	return &dErrors.Error{
		Code:    dErrors.CodeUnavailable,
		Message: "storage record corrupt",
		Err:     fmt.Errorf("%s/%s: %w", ns, key, errors.Join(sentinel.ErrCorrupt, err)),
	}
}

// IsUnavailable reports whether err is an infrastructure failure.
func IsUnavailable(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable)
}

// callbackError carries an UpdateFunc error through backend plumbing so it
// is never mistaken for (or wrapped as) an infrastructure failure.
type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

func unwrapCallback(err error) (error, bool) {
	var cb *callbackError
	if errors.As(err, &cb) {
		return cb.err, true
	}
	return nil, false
}

// GetJSON loads and decodes a record. found is false when the key is absent.
func GetJSON[T any](ctx context.Context, s Store, ns Namespace, key string) (value T, found bool, err error) {
	raw, err := s.Get(ctx, ns, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return value, false, nil
		}
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, true, Corrupt(ns, key, err)
	}
	return value, true, nil
}

// PutJSON encodes and stores a record, overwriting any previous value.
func PutJSON[T any](ctx context.Context, s Store, ns Namespace, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", ns, key, err)
	}
	return s.Put(ctx, ns, key, raw)
}

// UpdateJSON is Update over decoded values. It returns the value that was
// written. fn sees the zero value of T when the key is absent.
func UpdateJSON[T any](ctx context.Context, s Store, ns Namespace, key string, fn func(current T, exists bool) (T, error)) (T, error) {
	var written T
	err := s.Update(ctx, ns, key, func(raw []byte, exists bool) ([]byte, error) {
		var current T
		if exists {
			if err := json.Unmarshal(raw, &current); err != nil {
				return nil, Corrupt(ns, key, err)
			}
		}
		next, err := fn(current, exists)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", ns, key, err)
		}
		written = next
		return encoded, nil
	})
	return written, err
}
