package backend

import (
	"context"
	"time"

	"cloakswap/internal/audit"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/storage"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
)

// Simulated runs everything against the local stores.
type Simulated struct {
	evaluator *eligibility.Evaluator
	simulator *swap.Simulator
	ledger    *ledger.Ledger
	store     storage.Store
}

// NewSimulated composes the local evaluator, simulator and ledger.
func NewSimulated(evaluator *eligibility.Evaluator, simulator *swap.Simulator, l *ledger.Ledger, store storage.Store) *Simulated {
	return &Simulated{evaluator: evaluator, simulator: simulator, ledger: l, store: store}
}

func (s *Simulated) Name() Mode { return ModeSimulated }

func (s *Simulated) Check(ctx context.Context, identity id.Identity, poolID id.PoolID, now time.Time) (eligibility.Result, error) {
	return s.evaluator.Check(ctx, identity, poolID, now)
}

func (s *Simulated) SimulateSwap(ctx context.Context, req swap.Request, now time.Time) (*swap.Receipt, error) {
	return s.simulator.Simulate(ctx, req, now)
}

func (s *Simulated) AuditLog(ctx context.Context, identity id.Identity) ([]audit.Entry, error) {
	return s.evaluator.AuditLog(ctx, identity)
}

func (s *Simulated) Balances(ctx context.Context, identity id.Identity) (ledger.Balances, error) {
	return s.ledger.Balances(ctx, identity)
}

func (s *Simulated) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

var _ Backend = (*Simulated)(nil)
