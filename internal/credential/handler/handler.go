package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cloakswap/internal/bitmap"
	"cloakswap/internal/credential"
	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/httputil"
	"cloakswap/pkg/requestcontext"
)

const (
	defaultValidityDays = 365
	maxValidityDays     = 3650
	secondsPerDay       = 24 * 60 * 60
)

// Service defines the credential operations used by the handler.
type Service interface {
	Register(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error)
	Update(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error)
	IssueFor(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error)
	Status(ctx context.Context, identity id.Identity, now time.Time) (credential.Credential, credential.Status, error)
	Revoke(ctx context.Context, identity id.Identity) (receipt.ID, error)
}

// Handler exposes credential registration and issuer endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the self-service endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/register", h.HandleRegister)
	r.Post("/credentials/update", h.HandleUpdate)
	r.Get("/credentials/{identity}", h.HandleGet)
}

// RegisterAdmin mounts the issuer endpoints. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/credentials/issue", h.HandleIssue)
	r.Post("/admin/credentials/revoke", h.HandleRevoke)
}

// WriteRequest carries either raw ciphertext with an absolute expiry, or
// plaintext attributes the server encodes with a relative validity window.
type WriteRequest struct {
	Identity     string `json:"identity"`
	Ciphertext   string `json:"ciphertext,omitempty"`
	Expiry       int64  `json:"expiry,omitempty"`
	Accredited   bool   `json:"accredited,omitempty"`
	Region       string `json:"region,omitempty"`
	Bucket       string `json:"bucket,omitempty"`
	ValidityDays int    `json:"validity_days,omitempty"`

	parsedIdentity id.Identity
	parsedBitmap   bitmap.Bitmap
	fromAttributes bool
}

// Validate validates and parses the write request.
func (r *WriteRequest) Validate() error {
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

	hasRaw := r.Ciphertext != ""
	hasAttrs := r.Region != "" || r.Bucket != ""
	switch {
	case hasRaw && hasAttrs:
		return dErrors.New(dErrors.CodeValidation, "provide either ciphertext or attributes, not both")
	case hasRaw:
		if !bitmap.ValidCiphertext(r.Ciphertext) {
			return dErrors.New(dErrors.CodeValidation, "ciphertext must be a 0x-prefixed 32-byte hex word")
		}
		if r.Expiry <= 0 {
			return dErrors.New(dErrors.CodeValidation, "expiry is required with ciphertext")
		}
		if r.ValidityDays != 0 {
			return dErrors.New(dErrors.CodeValidation, "validity_days applies to attributes only")
		}
	case hasAttrs:
		region, err := bitmap.ParseRegion(r.Region)
		if err != nil {
			return err
		}
		bucket, err := bitmap.ParseBucket(r.Bucket)
		if err != nil {
			return err
		}
		if r.ValidityDays < 0 || r.ValidityDays > maxValidityDays {
			return dErrors.New(dErrors.CodeValidation, "validity_days must be between 0 and 3650 (0 selects the 365 day default)")
		}
		if r.Expiry != 0 {
			return dErrors.New(dErrors.CodeValidation, "expiry applies to ciphertext only")
		}
		r.parsedBitmap = bitmap.Build(r.Accredited, region, bucket)
		r.fromAttributes = true
	default:
		return dErrors.New(dErrors.CodeValidation, "ciphertext or region and bucket are required")
	}

	r.parsedIdentity = identity
	return nil
}

// ParsedIdentity returns the normalized identity.
func (r *WriteRequest) ParsedIdentity() id.Identity {
	return r.parsedIdentity
}

// Resolve returns the ciphertext and absolute expiry to store.
func (r *WriteRequest) Resolve(now time.Time) (string, int64) {
	if !r.fromAttributes {
		return r.Ciphertext, r.Expiry
	}
	days := r.ValidityDays
	if days == 0 {
		days = defaultValidityDays
	}
	return bitmap.Encrypt(r.parsedBitmap), now.Unix() + int64(days)*secondsPerDay
}

// RevokeRequest is the request body for revocation.
type RevokeRequest struct {
	Identity string `json:"identity"`

	parsedIdentity id.Identity
}

// Validate validates and parses the revoke request.
func (r *RevokeRequest) Validate() error {
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
	r.parsedIdentity = identity
	return nil
}

// ParsedIdentity returns the normalized identity.
func (r *RevokeRequest) ParsedIdentity() id.Identity {
	return r.parsedIdentity
}

// WriteResponse acknowledges a credential write.
type WriteResponse struct {
	Identity  string `json:"identity"`
	ReceiptID string `json:"receipt_id"`
	Expiry    int64  `json:"expiry,omitempty"`
}

// CredentialResponse describes an identity's credential without the ciphertext.
type CredentialResponse struct {
	Identity   string `json:"identity"`
	UserID     string `json:"user_id"`
	Registered bool   `json:"registered"`
	Status     string `json:"status"`
	Expiry     int64  `json:"expiry,omitempty"`
	// CiphertextPreview is a truncated handle for display, never the full value.
	CiphertextPreview string `json:"ciphertext_preview,omitempty"`
}

// HandleRegister handles POST /credentials/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.handleWrite(w, r, "register", h.service.Register)
}

// HandleUpdate handles POST /credentials/update.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.handleWrite(w, r, "update", h.service.Update)
}

// HandleIssue handles POST /admin/credentials/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	h.handleWrite(w, r, "issue", h.service.IssueFor)
}

type writeFunc func(ctx context.Context, identity id.Identity, ciphertext string, expiry int64) (receipt.ID, error)

func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request, op string, write writeFunc) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WriteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ciphertext, expiry := req.Resolve(requestcontext.Now(ctx))
	receiptID, err := write(ctx, req.ParsedIdentity(), ciphertext, expiry)
	if err != nil {
		h.logWriteError(ctx, op, requestID, req.ParsedIdentity(), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, WriteResponse{
		Identity:  req.ParsedIdentity().String(),
		ReceiptID: receiptID.String(),
		Expiry:    expiry,
	})
}

// HandleRevoke handles POST /admin/credentials/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receiptID, err := h.service.Revoke(ctx, req.ParsedIdentity())
	if err != nil {
		h.logWriteError(ctx, "revoke", requestID, req.ParsedIdentity(), err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, WriteResponse{
		Identity:  req.ParsedIdentity().String(),
		ReceiptID: receiptID.String(),
	})
}

// HandleGet handles GET /credentials/{identity}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, status, err := h.service.Status(ctx, identity, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get credential",
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	exists := status != credential.StatusAbsent
	resp := CredentialResponse{
		Identity:   identity.String(),
		UserID:     receipt.DeriveUserID(identity.String()),
		Registered: exists,
		Status:     string(status),
	}
	if exists {
		resp.Expiry = c.Expiry
		resp.CiphertextPreview = preview(c.Ciphertext)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

const previewLen = 10

func preview(ct string) string {
	if len(ct) <= previewLen {
		return ct
	}
	return ct[:previewLen] + "..."
}

func (h *Handler) logWriteError(ctx context.Context, op, requestID string, identity id.Identity, err error) {
	// Lifecycle conflicts are client errors, not failures.
	if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeNotFound) {
		h.logger.InfoContext(ctx, "credential write rejected",
			"op", op,
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		return
	}
	h.logger.ErrorContext(ctx, "failed to write credential",
		"op", op,
		"request_id", requestID,
		"identity", identity,
		"error", err,
	)
}

var _ Service = (*credential.Service)(nil)
