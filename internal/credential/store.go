package credential

import (
	"context"

	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

// Store persists credentials in the profiles namespace.
type Store struct {
	kv storage.Store
}

// NewStore wraps the shared key-value substrate.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Find returns the credential for identity; exists is false when absent.
func (s *Store) Find(ctx context.Context, identity id.Identity) (Credential, bool, error) {
	return storage.GetJSON[Credential](ctx, s.kv, storage.NamespaceProfiles, identity.String())
}

// Mutate applies fn atomically to identity's record.
func (s *Store) Mutate(ctx context.Context, identity id.Identity, fn func(current Credential, exists bool) (Credential, error)) (Credential, error) {
	return storage.UpdateJSON(ctx, s.kv, storage.NamespaceProfiles, identity.String(), fn)
}
