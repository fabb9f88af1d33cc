package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloakswap/internal/bitmap"
	"cloakswap/internal/pool"
	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/httputil"
	"cloakswap/pkg/requestcontext"
)

// Service defines the pool rule operations used by the handler.
type Service interface {
	SetRule(ctx context.Context, poolID id.PoolID, mask bitmap.Mask) (receipt.ID, error)
	GetRule(ctx context.Context, poolID id.PoolID) (bitmap.Mask, error)
	ListRules(ctx context.Context) ([]pool.Entry, error)
}

// Handler exposes pool rule endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a pool rule handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/pools", h.HandleListRules)
	r.Get("/pools/{poolID}/rule", h.HandleGetRule)
}

// RegisterAdmin mounts the owner endpoint. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/pools/{poolID}/rule", h.HandleSetRule)
}

// SetRuleRequest accepts a literal mask or the attributes to require.
type SetRuleRequest struct {
	Mask       string `json:"mask,omitempty"`
	Accredited bool   `json:"accredited,omitempty"`
	Region     string `json:"region,omitempty"`
	Bucket     string `json:"bucket,omitempty"`

	parsedMask bitmap.Mask
}

// Validate validates and parses the rule request.
func (r *SetRuleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	hasAttrs := r.Accredited || r.Region != "" || r.Bucket != ""
	if r.Mask != "" {
		if hasAttrs {
			return dErrors.New(dErrors.CodeValidation, "provide either mask or attributes, not both")
		}
		mask, err := bitmap.ParseMask(r.Mask)
		if err != nil {
			return err
		}
		r.parsedMask = mask
		return nil
	}
	if !hasAttrs {
		return dErrors.New(dErrors.CodeValidation, "mask or attributes are required")
	}

	var (
		region bitmap.Region
		bucket bitmap.Bucket
		err    error
	)
	if r.Region != "" {
		if region, err = bitmap.ParseRegion(r.Region); err != nil {
			return err
		}
	}
	if r.Bucket != "" {
		if bucket, err = bitmap.ParseBucket(r.Bucket); err != nil {
			return err
		}
	}
	r.parsedMask = bitmap.RequirementMask(r.Accredited, region, bucket)
	return nil
}

// ParsedMask returns the mask to store.
func (r *SetRuleRequest) ParsedMask() bitmap.Mask {
	return r.parsedMask
}

// RuleResponse describes a pool's rule.
type RuleResponse struct {
	PoolID     string `json:"pool_id"`
	Mask       string `json:"mask"`
	Configured bool   `json:"configured"`
	ReceiptID  string `json:"receipt_id,omitempty"`
}

// HandleGetRule handles GET /pools/{poolID}/rule.
func (h *Handler) HandleGetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	poolID, err := id.ParsePoolID(chi.URLParam(r, "poolID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	mask, err := h.service.GetRule(ctx, poolID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get pool rule",
			"request_id", requestID,
			"pool_id", poolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RuleResponse{
		PoolID:     poolID.String(),
		Mask:       mask.String(),
		Configured: !mask.IsZero(),
	})
}

// ListResponse lists the configured pools.
type ListResponse struct {
	Pools []RuleResponse `json:"pools"`
}

// HandleListRules handles GET /pools.
func (h *Handler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.ListRules(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list pool rules",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Pools: make([]RuleResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Pools = append(resp.Pools, RuleResponse{
			PoolID:     e.PoolID.String(),
			Mask:       e.Mask.String(),
			Configured: true,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleSetRule handles PUT /admin/pools/{poolID}/rule.
func (h *Handler) HandleSetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	poolID, err := id.ParsePoolID(chi.URLParam(r, "poolID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetRuleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receiptID, err := h.service.SetRule(ctx, poolID, req.ParsedMask())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to set pool rule",
			"request_id", requestID,
			"pool_id", poolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RuleResponse{
		PoolID:     poolID.String(),
		Mask:       req.ParsedMask().String(),
		Configured: !req.ParsedMask().IsZero(),
		ReceiptID:  receiptID.String(),
	})
}

var _ Service = (*pool.Store)(nil)
