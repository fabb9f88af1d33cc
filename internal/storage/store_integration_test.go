//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"cloakswap/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &StoreSuite{newStore: func() Store {
		if err := pg.TruncateTables(context.Background(), "kv_records"); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgres(pg.DB)
	}})
}

func TestRedisStoreAgainstRealRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &StoreSuite{newStore: func() Store {
		return NewRedis(rc.NewClient(t), WithKeyPrefix("cloakswap-it"))
	}})
}
