package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloakswap/internal/preferences"
	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/httputil"
	"cloakswap/pkg/requestcontext"
)

// Service defines the preference operations used by the handler.
type Service interface {
	Get(ctx context.Context, name id.PreferenceName, key preferences.Key) (string, bool, error)
	List(ctx context.Context, name id.PreferenceName) (preferences.Records, error)
	Set(ctx context.Context, name id.PreferenceName, key preferences.Key, value string) (receipt.ID, error)
}

// Handler exposes preference records.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a preferences handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the preference endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/preferences/{name}", h.HandleList)
	r.Get("/preferences/{name}/{key}", h.HandleGet)
	r.Put("/preferences/{name}/{key}", h.HandleSet)
}

// SetRequest is the body of PUT /preferences/{name}/{key}.
type SetRequest struct {
	Value *string `json:"value"`
}

// Validate requires the value field; an empty string clears the record.
func (r *SetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Value == nil {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	if len(*r.Value) > preferences.MaxValueLength {
		return preferences.ErrValueTooLong
	}
	return nil
}

// RecordResponse describes one record.
type RecordResponse struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	ReceiptID string `json:"receipt_id,omitempty"`
}

// ListResponse lists every record for a name.
type ListResponse struct {
	Name    string            `json:"name"`
	Records map[string]string `json:"records"`
}

// HandleList handles GET /preferences/{name}.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	name, err := id.ParsePreferenceName(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.List(ctx, name)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list preferences",
			"request_id", requestID,
			"name", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Name: name.String(), Records: make(map[string]string, len(records))}
	for k, v := range records {
		resp.Records[k.String()] = v
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /preferences/{name}/{key}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	name, key, ok := h.parsePath(w, r)
	if !ok {
		return
	}

	value, found, err := h.service.Get(ctx, name, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read preference",
			"request_id", requestID,
			"name", name,
			"key", key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if !found {
		httputil.WriteError(w, preferences.ErrNotSet)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RecordResponse{Name: name.String(), Key: key.String(), Value: value})
}

// HandleSet handles PUT /preferences/{name}/{key}.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	name, key, ok := h.parsePath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rcpt, err := h.service.Set(ctx, name, key, *req.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to write preference",
			"request_id", requestID,
			"name", name,
			"key", key,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RecordResponse{
		Name:      name.String(),
		Key:       key.String(),
		Value:     *req.Value,
		ReceiptID: rcpt.String(),
	})
}

func (h *Handler) parsePath(w http.ResponseWriter, r *http.Request) (id.PreferenceName, preferences.Key, bool) {
	name, err := id.ParsePreferenceName(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	key, err := preferences.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	return name, key, true
}

var _ Service = (*preferences.Service)(nil)
