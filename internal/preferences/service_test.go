package preferences

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cloakswap/internal/receipt"
	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	kv      *storage.MemoryStore
	service *Service
	name    id.PreferenceName
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = storage.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.service = NewService(s.kv, receipt.NewKeccak(), WithLogger(logger))
	s.name = "alice.eth"
}

func (s *ServiceSuite) TestSetThenGet() {
	r, err := s.service.Set(s.ctx, s.name, KeySlippage, "0.5")
	s.Require().NoError(err)
	s.NotEmpty(r)

	v, ok, err := s.service.Get(s.ctx, s.name, KeySlippage)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("0.5", v)
}

func (s *ServiceSuite) TestGetUnset() {
	v, ok, err := s.service.Get(s.ctx, s.name, KeyDefaultAsset)
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(v)
}

func (s *ServiceSuite) TestListIsNeverNil() {
	records, err := s.service.List(s.ctx, "nobody.eth")
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *ServiceSuite) TestSetKeepsOtherKeys() {
	_, err := s.service.Set(s.ctx, s.name, KeyPreferredChain, "base")
	s.Require().NoError(err)
	_, err = s.service.Set(s.ctx, s.name, KeyPreferredToken, "USDC")
	s.Require().NoError(err)

	records, err := s.service.List(s.ctx, s.name)
	s.Require().NoError(err)
	s.Equal(Records{KeyPreferredChain: "base", KeyPreferredToken: "USDC"}, records)
}

func (s *ServiceSuite) TestEmptyValueClears() {
	_, err := s.service.Set(s.ctx, s.name, KeyDisplayName, "Alice")
	s.Require().NoError(err)
	_, err = s.service.Set(s.ctx, s.name, KeyDisplayName, "")
	s.Require().NoError(err)

	_, ok, err := s.service.Get(s.ctx, s.name, KeyDisplayName)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestValueTooLong() {
	_, err := s.service.Set(s.ctx, s.name, KeyDisplayName, strings.Repeat("a", MaxValueLength+1))
	s.Require().ErrorIs(err, ErrValueTooLong)

	records, err := s.service.List(s.ctx, s.name)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *ServiceSuite) TestNamesAreIsolated() {
	_, err := s.service.Set(s.ctx, s.name, KeySlippage, "1")
	s.Require().NoError(err)

	_, ok, err := s.service.Get(s.ctx, "bob.eth", KeySlippage)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestClosedStoreIsUnavailable() {
	s.Require().NoError(s.kv.Close())

	_, err := s.service.Set(s.ctx, s.name, KeySlippage, "1")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, err = s.service.List(s.ctx, s.name)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("com.cloakswap.slippage")
	require.NoError(t, err)
	assert.Equal(t, KeySlippage, k)

	k, err = ParseKey(" preferredChain ")
	require.NoError(t, err)
	assert.Equal(t, KeyPreferredChain, k)

	for _, bad := range []string{"", "avatar", "com.other.slippage", "com.cloakswap.SLIPPAGE"} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrUnknownKey, bad)
	}
}

func TestRecordsSorted(t *testing.T) {
	r := Records{KeySlippage: "1", KeyDefaultAsset: "ETH", KeyCredentialRef: "0x1"}
	assert.Equal(t, []Key{KeyCredentialRef, KeyDefaultAsset, KeySlippage}, r.Sorted())
}

func TestNewServicePanics(t *testing.T) {
	assert.Panics(t, func() { NewService(nil, receipt.NewKeccak()) })
	assert.Panics(t, func() { NewService(storage.NewMemory(), nil) })
}
