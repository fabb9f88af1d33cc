package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloakswap/internal/ledger"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/httputil"
	"cloakswap/pkg/requestcontext"
)

// Service defines the ledger operations used by the handler.
type Service interface {
	Credit(ctx context.Context, identity id.Identity, token id.TokenSymbol, amount float64) (float64, error)
}

// Handler exposes the demo faucet. Balance reads go through the backend.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the faucet. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/balances/credit", h.HandleCredit)
}

// CreditRequest funds an identity for demos.
type CreditRequest struct {
	Identity string  `json:"identity"`
	Token    string  `json:"token"`
	Amount   float64 `json:"amount"`

	parsedIdentity id.Identity
	parsedToken    id.TokenSymbol
}

// Validate validates and parses the credit request.
func (r *CreditRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	identity, err := id.ParseIdentity(r.Identity)
	if err != nil {
		return err
	}
	token, err := id.ParseTokenSymbol(r.Token)
	if err != nil {
		return err
	}
	if err := ledger.ValidateAmount(r.Amount); err != nil {
		return err
	}
	r.parsedIdentity = identity
	r.parsedToken = token
	return nil
}

func (r *CreditRequest) ParsedIdentity() id.Identity { return r.parsedIdentity }
func (r *CreditRequest) ParsedToken() id.TokenSymbol { return r.parsedToken }

// CreditResponse reports the new balance.
type CreditResponse struct {
	Identity string  `json:"identity"`
	Token    string  `json:"token"`
	Balance  float64 `json:"balance"`
}

// HandleCredit handles POST /admin/balances/credit.
func (h *Handler) HandleCredit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	balance, err := h.service.Credit(ctx, req.ParsedIdentity(), req.ParsedToken(), req.Amount)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to credit balance",
			"request_id", requestID,
			"identity", req.ParsedIdentity(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CreditResponse{
		Identity: req.ParsedIdentity().String(),
		Token:    req.ParsedToken().String(),
		Balance:  balance,
	})
}

var _ Service = (*ledger.Ledger)(nil)
