//go:build integration

package containers

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// redisDatabases is the number of logical databases in a default Redis build.
const redisDatabases = 16

// RedisContainer wraps a shared Redis instance. Tests get isolated clients
// through NewClient rather than sharing one connection.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string

	opts   *redis.Options
	nextDB atomic.Uint32
}

// NewRedisContainer starts a new Redis container.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to parse redis URL: %v", err)
	}

	// Shared through Manager; Ryuk removes the container when the process exits.
	return &RedisContainer{Container: container, URL: url, opts: opts}
}

// NewClient returns a client bound to the next logical database, flushed
// before use. The caller may close it; cleanup closes it otherwise.
func (r *RedisContainer) NewClient(t *testing.T) *redis.Client {
	t.Helper()

	opts := *r.opts
	opts.DB = int(r.nextDB.Add(1) % redisDatabases)

	client := redis.NewClient(&opts)
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush redis db %d: %v", opts.DB, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
