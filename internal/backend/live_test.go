package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloakswap/internal/backend"
	hookHandler "cloakswap/internal/backend/handler"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/circuit"
)

// newRemote serves the hook API of a simulated node.
func newRemote(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	hookHandler.New(f.simulated, f.logger).Register(r)
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newLive(t *testing.T, baseURL string, breaker *circuit.Breaker) *backend.Live {
	t.Helper()
	live, err := backend.NewLive(backend.LiveConfig{BaseURL: baseURL, Timeout: 5 * time.Second, Breaker: breaker})
	require.NoError(t, err)
	return live
}

func TestLive_AgainstSimulatedNode(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newFixture(t)
	live := newLive(t, newRemote(t, f).URL, nil)

	t.Run("name", func(t *testing.T) {
		assert.Equal(t, backend.ModeLive, live.Name())
	})

	t.Run("check allowed", func(t *testing.T) {
		r, err := live.Check(ctx, "0xeligible", testPool, now)
		require.NoError(t, err)
		assert.True(t, r.Allowed)
		assert.Equal(t, eligibility.ReasonOK, r.Reason)
		assert.NotEmpty(t, r.ReceiptID)
	})

	t.Run("check not registered", func(t *testing.T) {
		r, err := live.Check(ctx, "0xstranger", testPool, now)
		require.NoError(t, err)
		assert.False(t, r.Allowed)
		assert.Equal(t, eligibility.ReasonNotRegistered, r.Reason)
	})

	t.Run("audit is read back from the node", func(t *testing.T) {
		entries, err := live.AuditLog(ctx, "0xstranger")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "NOT_REGISTERED", entries[0].Reason)
	})

	t.Run("empty audit is an empty slice", func(t *testing.T) {
		entries, err := live.AuditLog(ctx, "0xnobody")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("blocked swap carries the reason", func(t *testing.T) {
		_, err := live.SimulateSwap(ctx, swap.Request{
			Identity: "0xineligible", PoolID: testPool, From: id.TokenUSDC, To: id.TokenETH, Amount: 5,
		}, now)

		var blocked *swap.HookBlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, eligibility.ReasonNotEligible, blocked.Reason)
		assert.NotEmpty(t, blocked.CheckReceiptID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodePolicyViolation))
	})

	t.Run("settled swap returns remote balances", func(t *testing.T) {
		rcpt, err := live.SimulateSwap(ctx, swap.Request{
			Identity: "0xeligible", PoolID: testPool, From: id.TokenUSDC, To: id.TokenGGOLD, Amount: 100,
		}, now)
		require.NoError(t, err)
		assert.NotEmpty(t, rcpt.ID)
		assert.Equal(t, id.TokenGGOLD, rcpt.To)
		assert.Equal(t, 900.0, rcpt.Balances[id.TokenUSDC])

		b, err := live.Balances(ctx, "0xeligible")
		require.NoError(t, err)
		assert.Equal(t, 900.0, b[id.TokenUSDC])
		assert.Equal(t, 100.0, b[id.TokenGGOLD])
	})

	t.Run("invalid amount is rejected remotely", func(t *testing.T) {
		_, err := live.SimulateSwap(ctx, swap.Request{
			Identity: "0xeligible", PoolID: testPool, From: id.TokenUSDC, To: id.TokenETH, Amount: 0,
		}, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, live.Ping(ctx))
	})
}

func TestLive_CircuitOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	live := newLive(t, srv.URL, breaker)
	ctx := context.Background()

	for range 2 {
		_, err := live.Balances(ctx, "0xabc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	}
	assert.True(t, breaker.IsOpen())

	_, err := live.Balances(ctx, "0xabc")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Equal(t, int32(2), hits.Load(), "open circuit must not reach the node")
}

func TestLive_ClientErrorsKeepCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","error_description":"no such thing"}`))
	}))
	t.Cleanup(srv.Close)

	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	live := newLive(t, srv.URL, breaker)

	_, err := live.Balances(context.Background(), "0xabc")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(t, "no such thing", err.Error())
	assert.False(t, breaker.IsOpen())
}

func TestLive_UnreachableNode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	live := newLive(t, url, nil)
	err := live.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestNewLive_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "://bad"} {
		_, err := backend.NewLive(backend.LiveConfig{BaseURL: raw})
		assert.Error(t, err, raw)
	}
}
