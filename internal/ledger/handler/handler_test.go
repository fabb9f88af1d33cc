package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cloakswap/internal/ledger/handler/mocks"
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
	h := New(s.mockService, logger)

	r := chi.NewRouter()
	h.RegisterAdmin(r)
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

func (s *HandlerSuite) TestCredit_GoldAlias() {
	s.mockService.EXPECT().
		Credit(gomock.Any(), id.Identity("0xabc"), id.TokenGGOLD, 5.0).
		Return(5.0, nil)

	rec := s.do(http.MethodPost, "/admin/balances/credit",
		`{"identity":"0xabc","token":"gold","amount":5}`)

	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), `"token":"gGOLD"`)
}

func (s *HandlerSuite) TestCredit_Invalid() {
	cases := map[string]string{
		"zero amount":     `{"identity":"0xabc","token":"USDC","amount":0}`,
		"negative amount": `{"identity":"0xabc","token":"USDC","amount":-3}`,
		"bad token":       `{"identity":"0xabc","token":"US-DC","amount":1}`,
		"no identity":     `{"token":"USDC","amount":1}`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/admin/balances/credit", body)
			assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
		})
	}
}
