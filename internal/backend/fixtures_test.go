package backend_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"cloakswap/internal/audit"
	"cloakswap/internal/backend"
	"cloakswap/internal/bitmap"
	"cloakswap/internal/credential"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/pool"
	"cloakswap/internal/receipt"
	"cloakswap/internal/storage"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
)

const testPool id.PoolID = "0x1111111111111111111111111111111111111111111111111111111111111111"

type fixture struct {
	kv          *storage.MemoryStore
	credentials *credential.Service
	ledger      *ledger.Ledger
	simulated   *backend.Simulated
	logger      *slog.Logger
}

// newFixture wires a simulated backend over an in-memory store with the
// default rule on testPool, one eligible and one ineligible holder.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	receipts := receipt.NewKeccak()

	credentials := credential.NewService(credential.NewStore(kv), receipts, credential.WithLogger(logger))
	rules := pool.NewStore(kv, receipts, pool.WithLogger(logger))
	_, err := rules.SetRule(ctx, testPool, bitmap.DefaultRuleMask())
	require.NoError(t, err)

	evaluator := eligibility.New(credentials, rules, audit.NewPublisher(audit.NewLog(kv), nil), receipts,
		eligibility.WithLogger(logger))
	l := ledger.New(kv, logger)
	simulator := swap.New(evaluator, l, receipts,
		swap.WithSettlementDelay(0), swap.WithLogger(logger), swap.WithMetrics(prometheus.NewRegistry()))

	expiry := time.Now().Add(24 * time.Hour).Unix()
	_, err = credentials.IssueFor(ctx, "0xeligible",
		bitmap.Encrypt(bitmap.Build(true, bitmap.RegionEU, bitmap.Bucket1K)), expiry)
	require.NoError(t, err)
	_, err = credentials.IssueFor(ctx, "0xineligible",
		bitmap.Encrypt(bitmap.Build(false, bitmap.RegionEU, bitmap.Bucket1K)), expiry)
	require.NoError(t, err)
	_, err = l.Credit(ctx, "0xeligible", id.TokenUSDC, 1000)
	require.NoError(t, err)

	return &fixture{
		kv:          kv,
		credentials: credentials,
		ledger:      l,
		simulated:   backend.NewSimulated(evaluator, simulator, l, kv),
		logger:      logger,
	}
}
