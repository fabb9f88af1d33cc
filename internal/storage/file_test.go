package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/sentinel"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cloakswap_demo_state.json")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, PutJSON(ctx, s, NamespacePoolRules, "0xpool", "0x803"))
	require.NoError(t, s.Close())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	got, found, err := GetJSON[string](ctx, reopened, NamespacePoolRules, "0xpool")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0x803", got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed away")
}

func TestFileStore_RejectsNonJSON(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	err = s.Put(context.Background(), NamespaceProfiles, "0xabc", []byte{0xff, 0x00})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFile(path)
	assert.True(t, IsUnavailable(err))
}

func TestFileStore_FailedWriteLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.Mkdir(dir, 0o700))
	s, err := OpenFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	require.NoError(t, PutJSON(ctx, s, NamespaceBalances, "0xkept", map[string]float64{"USDC": 1}))

	require.NoError(t, os.RemoveAll(dir))

	register := func(current []byte, exists bool) ([]byte, error) {
		if exists {
			return nil, dErrors.New(dErrors.CodeConflict, "already registered")
		}
		return []byte(`{"ciphertext":"0x01"}`), nil
	}
	err = s.Update(ctx, NamespaceProfiles, "0xa", register)
	require.True(t, IsUnavailable(err), "got %v", err)
	_, err = s.Get(ctx, NamespaceProfiles, "0xa")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.Put(ctx, NamespacePoolRules, "0xpool", []byte(`"0x803"`))
	require.True(t, IsUnavailable(err))
	_, err = s.Get(ctx, NamespacePoolRules, "0xpool")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.Delete(ctx, NamespaceBalances, "0xkept")
	require.True(t, IsUnavailable(err))
	_, err = s.Get(ctx, NamespaceBalances, "0xkept")
	assert.NoError(t, err)

	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, s.Update(ctx, NamespaceProfiles, "0xa", register), "a retry after recovery succeeds")
	_, err = s.Get(ctx, NamespaceProfiles, "0xa")
	assert.NoError(t, err)
}
