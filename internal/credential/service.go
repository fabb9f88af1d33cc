package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
)

// Service implements the credential lifecycle:
//
//	absent --register--> valid|expired --update--> valid|expired --revoke--> revoked
//
// issueFor is the privileged path and overwrites unconditionally.
type Service struct {
	store    *Store
	receipts receipt.Generator
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a credential service. Panics on missing dependencies.
func NewService(store *Store, receipts receipt.Generator, opts ...Option) *Service {
	if store == nil {
		panic("credential.NewService: store is required")
	}
	if receipts == nil {
		panic("credential.NewService: receipt generator is required")
	}
	s := &Service{store: store, receipts: receipts, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the identity's credential. Fails with ErrAlreadyRegistered
// if any record exists, revoked ones included.
func (s *Service) Register(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}
	_, err := s.store.Mutate(ctx, identity, func(_ Credential, exists bool) (Credential, error) {
		if exists {
			return Credential{}, ErrAlreadyRegistered
		}
		return Credential{Ciphertext: ciphertext, Expiry: expiry}, nil
	})
	if err != nil {
		return "", err
	}
	return s.written(ctx, "register", identity, ciphertext, expiry), nil
}

// Update overwrites an existing credential in place. No history is kept.
func (s *Service) Update(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}
	_, err := s.store.Mutate(ctx, identity, func(_ Credential, exists bool) (Credential, error) {
		if !exists {
			return Credential{}, ErrNotRegistered
		}
		return Credential{Ciphertext: ciphertext, Expiry: expiry}, nil
	})
	if err != nil {
		return "", err
	}
	return s.written(ctx, "update", identity, ciphertext, expiry), nil
}

// IssueFor is the issuer path: it always succeeds and overwrites.
func (s *Service) IssueFor(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}
	_, err := s.store.Mutate(ctx, identity, func(Credential, bool) (Credential, error) {
		return Credential{Ciphertext: ciphertext, Expiry: expiry}, nil
	})
	if err != nil {
		return "", err
	}
	return s.written(ctx, "issue", identity, ciphertext, expiry), nil
}

// Get returns the stored credential; exists is false when absent.
func (s *Service) Get(ctx context.Context, identity id.Identity) (Credential, bool, error) {
	return s.store.Find(ctx, identity)
}

// IsValid reports whether a record exists and whether it is valid at now.
func (s *Service) IsValid(ctx context.Context, identity id.Identity, now time.Time) (exists, valid bool, err error) {
	c, exists, err := s.store.Find(ctx, identity)
	if err != nil {
		return false, false, err
	}
	return exists, exists && c.ValidAt(now), nil
}

// Status returns the stored record together with its lifecycle state at
// now. The record is zero when the status is StatusAbsent.
func (s *Service) Status(ctx context.Context, identity id.Identity, now time.Time) (Credential, Status, error) {
	c, exists, err := s.store.Find(ctx, identity)
	if err != nil {
		return Credential{}, "", err
	}
	return c, StatusOf(c, exists, now), nil
}

// Revoke clears the ciphertext but keeps the record, so the identity still
// exists and can no longer self-register. Fails with ErrNotRegistered when
// absent.
func (s *Service) Revoke(ctx context.Context, identity id.Identity) (receipt.ID, error) {
	_, err := s.store.Mutate(ctx, identity, func(current Credential, exists bool) (Credential, error) {
		if !exists {
			return Credential{}, ErrNotRegistered
		}
		current.Ciphertext = ""
		return current, nil
	})
	if err != nil {
		return "", err
	}
	r := s.receipts.New("revoke_" + identity.String())
	s.logger.InfoContext(ctx, "credential revoked",
		"identity", identity,
		"receipt_id", r,
	)
	return r, nil
}

func (s *Service) written(ctx context.Context, op string, identity id.Identity, ciphertext string, expiry int64) receipt.ID {
	r := s.receipts.New(fmt.Sprintf("%s_%s_%s", op, identity, ciphertext))
	s.logger.InfoContext(ctx, "credential written",
		"op", op,
		"identity", identity,
		"expiry", expiry,
		"receipt_id", r,
	)
	return r
}
