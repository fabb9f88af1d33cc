package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestContext(t *testing.T) {
	t.Run("empty context yields zero values", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
	})

	t.Run("round trips injected values", func(t *testing.T) {
		fixed := time.Unix(1_700_000_000, 0)
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8.0")
		ctx = WithTime(ctx, fixed)

		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "10.0.0.1", ClientIP(ctx))
		assert.Equal(t, "curl/8.0", UserAgent(ctx))
		assert.True(t, fixed.Equal(Now(ctx)))
	})

	t.Run("now falls back to wall clock", func(t *testing.T) {
		before := time.Now()
		assert.False(t, Now(context.Background()).Before(before))
	})
}
