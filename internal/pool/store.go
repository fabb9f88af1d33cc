// Package pool holds the per-pool requirement masks.
package pool

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"cloakswap/internal/bitmap"
	"cloakswap/internal/receipt"
	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

// Rule is the persisted form of a pool's mask.
type Rule struct {
	Mask      string    `json:"mask"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store maps pool ids to requirement masks in the pool rules namespace.
// An unset pool reads as mask 0.
type Store struct {
	kv       storage.Store
	receipts receipt.Generator
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Store.
type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a pool rule store. Panics on missing dependencies.
func NewStore(kv storage.Store, receipts receipt.Generator, opts ...Option) *Store {
	if kv == nil {
		panic("pool.NewStore: storage is required")
	}
	if receipts == nil {
		panic("pool.NewStore: receipt generator is required")
	}
	s := &Store{kv: kv, receipts: receipts, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRule overwrites the pool's mask. Setting 0 marks the pool unconfigured.
func (s *Store) SetRule(ctx context.Context, poolID id.PoolID, mask bitmap.Mask) (receipt.ID, error) {
	rule := Rule{Mask: mask.String(), UpdatedAt: s.now().UTC()}
	if err := storage.PutJSON(ctx, s.kv, storage.NamespacePoolRules, poolID.String(), rule); err != nil {
		return "", err
	}
	r := s.receipts.New("setRule_" + poolID.String() + "_" + rule.Mask)
	s.logger.InfoContext(ctx, "pool rule set",
		"pool_id", poolID,
		"mask", rule.Mask,
		"receipt_id", r,
	)
	return r, nil
}

// GetRule returns the pool's mask, 0 when never set.
func (s *Store) GetRule(ctx context.Context, poolID id.PoolID) (bitmap.Mask, error) {
	rule, found, err := storage.GetJSON[Rule](ctx, s.kv, storage.NamespacePoolRules, poolID.String())
	if err != nil || !found {
		return 0, err
	}
	mask, err := bitmap.ParseMask(rule.Mask)
	if err != nil {
		return 0, storage.Corrupt(storage.NamespacePoolRules, poolID.String(), err)
	}
	return mask, nil
}

// Entry is one configured pool.
type Entry struct {
	PoolID id.PoolID
	Mask   bitmap.Mask
}

// ListRules returns every pool with a nonzero mask, ordered by pool id.
func (s *Store) ListRules(ctx context.Context) ([]Entry, error) {
	keys, err := s.kv.Keys(ctx, storage.NamespacePoolRules)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		// A key removed after Keys returned reads as 0 and is skipped.
		mask, err := s.GetRule(ctx, id.PoolID(key))
		if err != nil {
			return nil, err
		}
		if mask.IsZero() {
			continue
		}
		entries = append(entries, Entry{PoolID: id.PoolID(key), Mask: mask})
	}
	return entries, nil
}
