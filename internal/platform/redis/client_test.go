package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloakswap/internal/platform/config"
)

func newTestClient(t *testing.T, reg *prometheus.Registry) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.DefaultRedisConfig()
	cfg.URL = "redis://" + mr.Addr()

	c, err := New(context.Background(), cfg, NewPoolMetrics(reg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_EmptyURLIsUnconfigured(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "http://nope"}, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, prometheus.NewRegistry())
	assert.NoError(t, c.Health(context.Background()))
}

func TestRecordPoolStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, reg)

	c.RecordPoolStats()
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	c.RecordPoolStats()

	assert.GreaterOrEqual(t, testutil.ToFloat64(c.metrics.totalConns), 1.0)
	count, err := testutil.GatherAndCount(reg, "cloakswap_redis_pool_hits_total", "cloakswap_redis_pool_total_conns")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordPoolStats_NoMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultRedisConfig()
	cfg.URL = "redis://" + mr.Addr()
	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.NotPanics(t, c.RecordPoolStats)
}
