package backend_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloakswap/internal/backend"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/storage"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
)

func TestSimulated(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("name", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, backend.ModeSimulated, f.simulated.Name())
	})

	t.Run("check and audit share the local stores", func(t *testing.T) {
		f := newFixture(t)

		r, err := f.simulated.Check(ctx, "0xeligible", testPool, now)
		require.NoError(t, err)
		assert.True(t, r.Allowed)

		entries, err := f.simulated.AuditLog(ctx, "0xeligible")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, r.ReceiptID.String(), entries[0].ReceiptID)
	})

	t.Run("swap moves local balances", func(t *testing.T) {
		f := newFixture(t)

		rcpt, err := f.simulated.SimulateSwap(ctx, swap.Request{
			Identity: "0xeligible", PoolID: testPool, From: id.TokenUSDC, To: id.TokenETH, Amount: 250,
		}, now)
		require.NoError(t, err)
		assert.Equal(t, 750.0, rcpt.Balances[id.TokenUSDC])

		b, err := f.simulated.Balances(ctx, "0xeligible")
		require.NoError(t, err)
		assert.Equal(t, 750.0, b[id.TokenUSDC])
		assert.Equal(t, 250.0, b[id.TokenETH])
	})

	t.Run("blocked swap", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.simulated.SimulateSwap(ctx, swap.Request{
			Identity: "0xineligible", PoolID: testPool, From: id.TokenUSDC, To: id.TokenETH, Amount: 1,
		}, now)
		var blocked *swap.HookBlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, eligibility.ReasonNotEligible, blocked.Reason)
	})

	t.Run("ping follows the store", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.simulated.Ping(ctx))

		require.NoError(t, f.kv.Close())
		err := f.simulated.Ping(ctx)
		require.Error(t, err)
		assert.True(t, storage.IsUnavailable(err))
	})
}
