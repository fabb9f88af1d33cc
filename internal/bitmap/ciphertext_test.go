package bitmap

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cloakswap/pkg/domain-errors"
)

func TestEncrypt(t *testing.T) {
	ct := Encrypt(Build(true, RegionEU, Bucket1K))

	assert.Len(t, ct, 2+2*CiphertextLen)
	assert.True(t, strings.HasPrefix(ct, "0x"))
	assert.True(t, strings.HasSuffix(ct, "0803"))
	assert.True(t, ValidCiphertext(ct))
}

func TestDecryptIsForbidden(t *testing.T) {
	_, err := Decrypt(Encrypt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionForbidden))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestEvaluateCiphertext(t *testing.T) {
	eligible := Encrypt(Build(true, RegionEU, Bucket1K))
	missingBucket := Encrypt(Build(true, RegionEU, Bucket100))

	ok, err := EvaluateCiphertext(eligible, DefaultRuleMask())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateCiphertext(missingBucket, DefaultRuleMask())
	require.NoError(t, err)
	assert.False(t, ok)

	for _, bad := range []string{
		"",
		"0x803",
		"803" + strings.Repeat("0", 61),
		"0x" + strings.Repeat("g", 64),
		"0x01" + strings.Repeat("0", 62),
	} {
		_, err := EvaluateCiphertext(bad, DefaultRuleMask())
		assert.ErrorIs(t, err, ErrMalformedCiphertext, bad)
		assert.False(t, ValidCiphertext(bad))
	}
}
