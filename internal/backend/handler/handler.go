package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cloakswap/internal/audit"
	"cloakswap/internal/backend"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/httputil"
	"cloakswap/pkg/requestcontext"
)

// Service defines the backend operations used by the handler.
type Service interface {
	Check(ctx context.Context, identity id.Identity, poolID id.PoolID, now time.Time) (eligibility.Result, error)
	SimulateSwap(ctx context.Context, req swap.Request, now time.Time) (*swap.Receipt, error)
	AuditLog(ctx context.Context, identity id.Identity) ([]audit.Entry, error)
	Balances(ctx context.Context, identity id.Identity) (ledger.Balances, error)
}

// Handler exposes the compliance hook: checks, gated swaps, the audit trail
// and balances.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a hook handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the hook endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/hook/check", h.HandleCheck)
	r.Post("/hook/swap", h.HandleSwap)
	r.Get("/hook/audit/{identity}", h.HandleAudit)
	r.Get("/balances/{identity}", h.HandleBalances)
}

// CheckRequest is the request body for an eligibility check.
type CheckRequest struct {
	backend.CheckRequest

	parsedIdentity id.Identity
	parsedPoolID   id.PoolID
}

// Validate validates and parses the check request.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Identity == "" {
		return dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if r.PoolID == "" {
		return dErrors.New(dErrors.CodeValidation, "pool_id is required")
	}
	identity, err := id.ParseIdentity(r.Identity)
	if err != nil {
		return err
	}
	poolID, err := id.ParsePoolID(r.PoolID)
	if err != nil {
		return err
	}
	r.parsedIdentity = identity
	r.parsedPoolID = poolID
	return nil
}

// SwapRequest is the request body for a gated swap.
type SwapRequest struct {
	backend.SwapRequest

	parsed swap.Request
}

// Validate validates and parses the swap request. Amount is checked first.
func (r *SwapRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := ledger.ValidateAmount(r.Amount); err != nil {
		return err
	}
	if r.Identity == "" || r.PoolID == "" {
		return dErrors.New(dErrors.CodeValidation, "identity and pool_id are required")
	}
	identity, err := id.ParseIdentity(r.Identity)
	if err != nil {
		return err
	}
	poolID, err := id.ParsePoolID(r.PoolID)
	if err != nil {
		return err
	}
	from, err := id.ParseTokenSymbol(r.FromToken)
	if err != nil {
		return err
	}
	to, err := id.ParseTokenSymbol(r.ToToken)
	if err != nil {
		return err
	}
	r.parsed = swap.Request{Identity: identity, PoolID: poolID, From: from, To: to, Amount: r.Amount}
	return nil
}

// HandleCheck handles POST /hook/check.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Check(ctx, req.parsedIdentity, req.parsedPoolID, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "eligibility check failed",
			"request_id", requestID,
			"identity", req.parsedIdentity,
			"pool_id", req.parsedPoolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, backend.NewCheckResponse(result))
}

// HandleSwap handles POST /hook/swap.
func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SwapRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rcpt, err := h.service.SimulateSwap(ctx, req.parsed, requestcontext.Now(ctx))
	if err != nil {
		var blocked *swap.HookBlockedError
		if errors.As(err, &blocked) {
			httputil.WriteJSON(w, http.StatusPreconditionFailed, backend.BlockedResponse{
				Error:            httputil.DomainCodeToHTTPCode(dErrors.CodePolicyViolation),
				ErrorDescription: blocked.Reason.Message(),
				Reason:           blocked.Reason.String(),
				ReasonCode:       uint8(blocked.Reason),
				CheckReceiptID:   blocked.CheckReceiptID,
			})
			return
		}
		h.logger.ErrorContext(ctx, "swap failed",
			"request_id", requestID,
			"identity", req.parsed.Identity,
			"pool_id", req.parsed.PoolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, backend.NewSwapResponse(rcpt))
}

// HandleAudit handles GET /hook/audit/{identity}.
func (h *Handler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.AuditLog(ctx, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit log",
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, backend.AuditResponse{Identity: identity.String(), Entries: entries})
}

// HandleBalances handles GET /balances/{identity}.
func (h *Handler) HandleBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	balances, err := h.service.Balances(ctx, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read balances",
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, backend.BalancesResponse{
		Identity: identity.String(),
		Balances: backend.NewBalances(balances),
	})
}

var _ Service = (backend.Backend)(nil)
