package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cloakswap/internal/preferences"
	"cloakswap/internal/preferences/handler/mocks"
	"cloakswap/internal/receipt"
	"cloakswap/internal/storage"
	id "cloakswap/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(s.mockService, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestList() {
	s.mockService.EXPECT().
		List(gomock.Any(), id.PreferenceName("alice.eth")).
		Return(preferences.Records{preferences.KeySlippage: "0.5"}, nil)

	rec := s.do(http.MethodGet, "/preferences/Alice.ETH", "")

	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.JSONEq(s.T(),
		`{"name":"alice.eth","records":{"com.cloakswap.slippage":"0.5"}}`,
		rec.Body.String())
}

func (s *HandlerSuite) TestGet_ShortKey() {
	s.mockService.EXPECT().
		Get(gomock.Any(), id.PreferenceName("alice.eth"), preferences.KeyDefaultAsset).
		Return("ETH", true, nil)

	rec := s.do(http.MethodGet, "/preferences/alice.eth/defaultAsset", "")

	require.Equal(s.T(), http.StatusOK, rec.Code)
	var resp RecordResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "com.cloakswap.defaultAsset", resp.Key)
	assert.Equal(s.T(), "ETH", resp.Value)
	assert.Empty(s.T(), resp.ReceiptID)
}

func (s *HandlerSuite) TestGet_Unset() {
	s.mockService.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return("", false, nil)

	rec := s.do(http.MethodGet, "/preferences/alice.eth/com.cloakswap.slippage", "")

	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestGet_UnknownKey() {
	rec := s.do(http.MethodGet, "/preferences/alice.eth/avatar", "")
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSet() {
	s.mockService.EXPECT().
		Set(gomock.Any(), id.PreferenceName("alice.eth"), preferences.KeyPreferredChain, "base").
		Return(receipt.ID("0xfeed"), nil)

	rec := s.do(http.MethodPut, "/preferences/alice.eth/preferredChain", `{"value":"base"}`)

	require.Equal(s.T(), http.StatusOK, rec.Code)
	var resp RecordResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), "0xfeed", resp.ReceiptID)
	assert.Equal(s.T(), "base", resp.Value)
}

func (s *HandlerSuite) TestSet_EmptyValueClears() {
	s.mockService.EXPECT().
		Set(gomock.Any(), gomock.Any(), preferences.KeyDisplayName, "").
		Return(receipt.ID("0xc1ea"), nil)

	rec := s.do(http.MethodPut, "/preferences/alice.eth/displayName", `{"value":""}`)

	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestSet_Invalid() {
	for _, body := range []string{
		`{}`,
		`{"value":"` + strings.Repeat("x", preferences.MaxValueLength+1) + `"}`,
		`not json`,
	} {
		rec := s.do(http.MethodPut, "/preferences/alice.eth/displayName", body)
		assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	}
}

func (s *HandlerSuite) TestSet_StoreDown() {
	s.mockService.EXPECT().
		Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(receipt.ID(""), storage.Unavailable("update", errors.New("down")))

	rec := s.do(http.MethodPut, "/preferences/alice.eth/slippage", `{"value":"1"}`)

	assert.Equal(s.T(), http.StatusServiceUnavailable, rec.Code)
}
