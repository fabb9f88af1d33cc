// Package ledger keeps simulated per-identity token balances.
package ledger

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
)

// ErrInvalidAmount rejects amounts that are not finite and positive, and
// updates whose resulting balance would overflow to infinity.
var ErrInvalidAmount = &dErrors.Error{Code: dErrors.CodeInvalidInput, Message: "amount must be a finite positive number"}

// Balances maps token symbols to amounts.
type Balances map[id.TokenSymbol]float64

// Symbols returns the tokens in sorted order.
func (b Balances) Symbols() []id.TokenSymbol {
	out := make([]id.TokenSymbol, 0, len(b))
	for sym := range b {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidateAmount reports ErrInvalidAmount for NaN, infinities, and values <= 0.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Ledger stores one balances record per identity in the balances namespace.
type Ledger struct {
	kv     storage.Store
	logger *slog.Logger
}

// New creates a ledger.
func New(kv storage.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{kv: kv, logger: logger}
}

// Balances returns identity's balances. The default tokens are always present.
func (l *Ledger) Balances(ctx context.Context, identity id.Identity) (Balances, error) {
	stored, _, err := storage.GetJSON[Balances](ctx, l.kv, storage.NamespaceBalances, identity.String())
	if err != nil {
		return nil, err
	}
	out := make(Balances, len(id.DefaultTokens)+len(stored))
	for _, sym := range id.DefaultTokens {
		out[sym] = 0
	}
	for sym, v := range stored {
		out[sym] = v
	}
	return out, nil
}

// Credit adds amount to token and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, identity id.Identity, token id.TokenSymbol, amount float64) (float64, error) {
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	next, err := l.mutate(ctx, identity, func(b Balances) {
		b[token] += amount
	})
	if err != nil {
		return 0, err
	}
	l.logger.InfoContext(ctx, "balance credited",
		"identity", identity,
		"token", token,
		"amount", amount,
	)
	return next[token], nil
}

// Exchange debits from and credits to by the same amount in one atomic
// record update. The debit floors at zero; the credit is always the full
// amount.
func (l *Ledger) Exchange(ctx context.Context, identity id.Identity, from, to id.TokenSymbol, amount float64) (Balances, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	return l.mutate(ctx, identity, func(b Balances) {
		b[from] = math.Max(0, b[from]-amount)
		b[to] += amount
	})
}

// mutate applies fn to a copy of the stored balances. A result that is not
// finite aborts the update and leaves the record unchanged.
func (l *Ledger) mutate(ctx context.Context, identity id.Identity, fn func(Balances)) (Balances, error) {
	return storage.UpdateJSON(ctx, l.kv, storage.NamespaceBalances, identity.String(),
		func(current Balances, _ bool) (Balances, error) {
			next := make(Balances, len(current)+1)
			for sym, v := range current {
				next[sym] = v
			}
			fn(next)
			for _, v := range next {
				if math.IsInf(v, 0) || math.IsNaN(v) {
					return nil, ErrInvalidAmount
				}
			}
			return next, nil
		})
}
