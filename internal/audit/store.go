package audit

import (
	"context"

	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

// Log is the capped, most-recent-first evaluation history per identity.
type Log struct {
	kv storage.Store
}

// NewLog stores entries in the hook audit namespace.
func NewLog(kv storage.Store) *Log {
	return &Log{kv: kv}
}

// Append prepends e to identity's history and trims it to MaxEntries.
func (l *Log) Append(ctx context.Context, identity id.Identity, e Entry) error {
	_, err := storage.UpdateJSON(ctx, l.kv, storage.NamespaceHookAudit, identity.String(),
		func(current []Entry, _ bool) ([]Entry, error) {
			next := make([]Entry, 0, min(len(current)+1, MaxEntries))
			next = append(next, e)
			for _, old := range current {
				if len(next) == MaxEntries {
					break
				}
				next = append(next, old)
			}
			return next, nil
		})
	return err
}

// List returns a snapshot of identity's history, most recent first. An
// identity with no history yields an empty slice.
func (l *Log) List(ctx context.Context, identity id.Identity) ([]Entry, error) {
	entries, _, err := storage.GetJSON[[]Entry](ctx, l.kv, storage.NamespaceHookAudit, identity.String())
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
