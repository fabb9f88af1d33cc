package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

func entryN(n int) Entry {
	return Entry{
		Timestamp: time.Unix(int64(n), 0).UTC(),
		PoolID:    "0x11",
		Reason:    "OK",
		Allowed:   true,
		ReceiptID: fmt.Sprintf("0x%02d", n),
	}
}

func TestLog_EmptyIdentity(t *testing.T) {
	l := NewLog(storage.NewMemory())

	entries, err := l.List(context.Background(), "0xnobody")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLog_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemory())
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Append(ctx, "0xabc", entryN(i)))
	}

	entries, err := l.List(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "0x03", entries[0].ReceiptID)
	assert.Equal(t, "0x01", entries[2].ReceiptID)
}

func TestLog_CapDropsOldest(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemory())
	for i := 1; i <= 25; i++ {
		require.NoError(t, l.Append(ctx, "0xabc", entryN(i)))
	}

	entries, err := l.List(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, entries, MaxEntries)
	assert.Equal(t, "0x25", entries[0].ReceiptID)
	assert.Equal(t, "0x06", entries[MaxEntries-1].ReceiptID)
}

func TestLog_IdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemory())
	require.NoError(t, l.Append(ctx, id.Identity("0xa"), entryN(1)))

	entries, err := l.List(ctx, id.Identity("0xb"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLog_ListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemory())
	require.NoError(t, l.Append(ctx, "0xabc", entryN(1)))

	snapshot, err := l.List(ctx, "0xabc")
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, "0xabc", entryN(2)))

	assert.Len(t, snapshot, 1)
}

func TestLog_PersistedShape(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, NewLog(kv).Append(ctx, "0xabc", entryN(7)))

	raw, err := kv.Get(ctx, storage.NamespaceHookAudit, "0xabc")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"txHash":"0x07"`)
	assert.Contains(t, string(raw), `"poolId":"0x11"`)
}
