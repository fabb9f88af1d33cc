// Package seeder installs demo data: the default rule on the demo pool, one
// eligible and one ineligible holder, and starting balances.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloakswap/internal/bitmap"
	"cloakswap/internal/credential"
	"cloakswap/internal/ledger"
	"cloakswap/internal/pool"
	id "cloakswap/pkg/domain"
)

// Demo holders.
const (
	DemoEligible   id.Identity = "0x1111111111111111111111111111111111111111"
	DemoIneligible id.Identity = "0x2222222222222222222222222222222222222222"
)

const (
	demoValidity = 30 * 24 * time.Hour
	demoFunding  = 1000
)

// Options configures a seed run.
type Options struct {
	PoolID id.PoolID
	Now    time.Time
	Logger *slog.Logger
}

// Seed writes the demo data. Re-running it refreshes the rule and
// credentials; balances are only funded while empty.
func Seed(ctx context.Context, rules *pool.Store, credentials *credential.Service, l *ledger.Ledger, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	rcpt, err := rules.SetRule(ctx, opts.PoolID, bitmap.DefaultRuleMask())
	if err != nil {
		return fmt.Errorf("seed pool rule: %w", err)
	}
	logger.InfoContext(ctx, "seeded pool rule",
		"pool_id", opts.PoolID,
		"mask", bitmap.DefaultRuleMask().String(),
		"receipt_id", rcpt,
	)

	expiry := opts.Now.Add(demoValidity).Unix()
	holders := []struct {
		identity id.Identity
		bitmap   bitmap.Bitmap
	}{
		{DemoEligible, bitmap.Build(true, bitmap.RegionEU, bitmap.Bucket1K)},
		{DemoIneligible, bitmap.Build(true, bitmap.RegionEU, bitmap.Bucket10K)},
	}
	for _, h := range holders {
		if _, err := credentials.IssueFor(ctx, h.identity, bitmap.Encrypt(h.bitmap), expiry); err != nil {
			return fmt.Errorf("seed credential for %s: %w", h.identity, err)
		}
		if err := fund(ctx, l, h.identity); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "seeded demo holders",
		"eligible", DemoEligible,
		"ineligible", DemoIneligible,
		"expiry", expiry,
	)
	return nil
}

func fund(ctx context.Context, l *ledger.Ledger, identity id.Identity) error {
	b, err := l.Balances(ctx, identity)
	if err != nil {
		return fmt.Errorf("read balances for %s: %w", identity, err)
	}
	if b[id.TokenUSDC] > 0 {
		return nil
	}
	if _, err := l.Credit(ctx, identity, id.TokenUSDC, demoFunding); err != nil {
		return fmt.Errorf("fund %s: %w", identity, err)
	}
	return nil
}
