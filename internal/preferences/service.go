package preferences

import (
	"context"
	"log/slog"

	"cloakswap/internal/receipt"
	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

// Service reads and writes preference records in the preferences namespace.
// All records for a name live in one document so a set is a single atomic
// update.
type Service struct {
	kv       storage.Store
	receipts receipt.Generator
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a preference service. Panics on missing dependencies.
func NewService(kv storage.Store, receipts receipt.Generator, opts ...Option) *Service {
	if kv == nil {
		panic("preferences.NewService: store is required")
	}
	if receipts == nil {
		panic("preferences.NewService: receipt generator is required")
	}
	s := &Service{kv: kv, receipts: receipts, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key; ok is false when unset.
func (s *Service) Get(ctx context.Context, name id.PreferenceName, key Key) (value string, ok bool, err error) {
	records, err := s.List(ctx, name)
	if err != nil {
		return "", false, err
	}
	value, ok = records[key]
	return value, ok, nil
}

// List returns every record for name. Never nil.
func (s *Service) List(ctx context.Context, name id.PreferenceName) (Records, error) {
	records, _, err := storage.GetJSON[Records](ctx, s.kv, storage.NamespacePreferences, name.String())
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = Records{}
	}
	return records, nil
}

// Set writes value under key. An empty value clears the record.
func (s *Service) Set(ctx context.Context, name id.PreferenceName, key Key, value string) (receipt.ID, error) {
	if len(value) > MaxValueLength {
		return "", ErrValueTooLong
	}
	_, err := storage.UpdateJSON(ctx, s.kv, storage.NamespacePreferences, name.String(),
		func(current Records, _ bool) (Records, error) {
			if current == nil {
				current = Records{}
			}
			if value == "" {
				delete(current, key)
			} else {
				current[key] = value
			}
			return current, nil
		})
	if err != nil {
		return "", err
	}

	r := s.receipts.New("setText_" + name.String() + "_" + key.String() + "_" + value)
	s.logger.InfoContext(ctx, "preference written",
		"name", name,
		"key", key,
		"cleared", value == "",
		"receipt_id", r,
	)
	return r, nil
}
