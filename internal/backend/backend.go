// Package backend selects where eligibility checks and swaps run: against the
// local simulated stores, or forwarded to a live node.
package backend

import (
	"context"
	"time"

	"cloakswap/internal/audit"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
)

// Mode names a Backend variant in configuration.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeLive      Mode = "live"
)

// Backend is the eligibility capability. One variant is chosen at startup.
type Backend interface {
	Name() Mode
	Check(ctx context.Context, identity id.Identity, poolID id.PoolID, now time.Time) (eligibility.Result, error)
	SimulateSwap(ctx context.Context, req swap.Request, now time.Time) (*swap.Receipt, error)
	AuditLog(ctx context.Context, identity id.Identity) ([]audit.Entry, error)
	Balances(ctx context.Context, identity id.Identity) (ledger.Balances, error)
	Ping(ctx context.Context) error
}
