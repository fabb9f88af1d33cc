// Package eligibility decides whether an identity may trade in a pool and
// records every decision in the audit log.
package eligibility

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cloakswap/internal/audit"
	"cloakswap/internal/bitmap"
	"cloakswap/internal/credential"
	"cloakswap/internal/eligibility/metrics"
	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
)

// CredentialReader reads stored credentials.
type CredentialReader interface {
	Get(ctx context.Context, identity id.Identity) (credential.Credential, bool, error)
}

// RuleReader reads pool requirement masks.
type RuleReader interface {
	GetRule(ctx context.Context, poolID id.PoolID) (bitmap.Mask, error)
}

// AuditPublisher records evaluations.
type AuditPublisher interface {
	Emit(ctx context.Context, identity id.Identity, e audit.Entry) error
	List(ctx context.Context, identity id.Identity) ([]audit.Entry, error)
}

// Evaluator runs the ordered eligibility rules.
type Evaluator struct {
	credentials CredentialReader
	rules       RuleReader
	auditor     AuditPublisher
	receipts    receipt.Generator
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Evaluator) {
		e.tracer = t
	}
}

// New creates an evaluator. Panics if a required dependency is nil.
func New(credentials CredentialReader, rules RuleReader, auditor AuditPublisher, receipts receipt.Generator, opts ...Option) *Evaluator {
	if credentials == nil {
		panic("eligibility.New: credential reader is required")
	}
	if rules == nil {
		panic("eligibility.New: rule reader is required")
	}
	if auditor == nil {
		panic("eligibility.New: auditor is required")
	}
	if receipts == nil {
		panic("eligibility.New: receipt generator is required")
	}
	e := &Evaluator{
		credentials: credentials,
		rules:       rules,
		auditor:     auditor,
		receipts:    receipts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("cloakswap/eligibility")
	}
	return e
}

// Check evaluates identity against poolID at now and audits the outcome.
// Ineligibility is a Result, not an error; errors are infrastructure
// failures only.
func (e *Evaluator) Check(ctx context.Context, identity id.Identity, poolID id.PoolID, now time.Time) (result Result, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "eligibility.check", trace.WithAttributes(
		attribute.String("pool_id", poolID.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.String("reason", result.Reason.String()),
				attribute.Bool("allowed", result.Allowed),
			)
		}
		span.End()
		e.metrics.ObserveCheckLatency(time.Since(start))
	}()

	mask, err := e.rules.GetRule(ctx, poolID)
	if err != nil {
		return Result{}, err
	}

	reason, ctRef, err := e.evaluate(ctx, identity, mask, now)
	if err != nil {
		return Result{}, err
	}

	result = Result{
		Identity:  identity,
		PoolID:    poolID,
		Allowed:   reason == ReasonOK,
		Reason:    reason,
		ReceiptID: e.receipts.New("check_" + identity.String() + "_" + poolID.String()),
		CheckedAt: now,
	}

	if err := e.emitAudit(ctx, result, ctRef, mask); err != nil {
		return Result{}, err
	}
	e.metrics.IncrementOutcome(reason.String())
	return result, nil
}

// evaluate applies the rules in order; the first match wins:
//  1. mask 0: pool not configured
//  2. no record: not registered
//  3. expiry <= now: expired
//  4. missing required bits: not eligible
func (e *Evaluator) evaluate(ctx context.Context, identity id.Identity, mask bitmap.Mask, now time.Time) (ReasonCode, string, error) {
	if mask.IsZero() {
		return ReasonPoolNotConfigured, "", nil
	}

	cred, exists, err := e.credentials.Get(ctx, identity)
	if err != nil {
		return 0, "", err
	}
	if !exists {
		return ReasonNotRegistered, "", nil
	}
	if cred.ExpiredAt(now) {
		return ReasonExpired, ctRef(cred), nil
	}

	ok, err := bitmap.EvaluateCiphertext(cred.Ciphertext, mask)
	if err != nil {
		// Revoked or malformed ciphertexts fail closed.
		e.logger.InfoContext(ctx, "credential not evaluable",
			"identity", identity,
			"revoked", cred.Revoked(),
		)
		return ReasonNotEligible, ctRef(cred), nil
	}
	if !ok {
		return ReasonNotEligible, ctRef(cred), nil
	}
	return ReasonOK, ctRef(cred), nil
}

func ctRef(c credential.Credential) string {
	if c.Revoked() {
		return ""
	}
	return receipt.Ref(c.Ciphertext)
}

func (e *Evaluator) emitAudit(ctx context.Context, r Result, userRef string, mask bitmap.Mask) error {
	entry := audit.Entry{
		Timestamp:     r.CheckedAt.UTC(),
		PoolID:        r.PoolID.String(),
		Allowed:       r.Allowed,
		Reason:        r.Reason.String(),
		ReasonCode:    uint8(r.Reason),
		Message:       r.Message(),
		UserBitmapRef: userRef,
		RuleMaskRef:   mask.String(),
		ReceiptID:     r.ReceiptID.String(),
	}
	// Every decision must be recorded before it is returned.
	if err := e.auditor.Emit(ctx, r.Identity, entry); err != nil {
		e.metrics.IncrementAuditFailure()
		e.logger.ErrorContext(ctx, "failed to record eligibility check",
			"identity", r.Identity,
			"pool_id", r.PoolID,
			"reason", r.Reason.String(),
			"error", err,
		)
		return err
	}
	return nil
}

// AuditLog returns identity's recorded checks, most recent first.
func (e *Evaluator) AuditLog(ctx context.Context, identity id.Identity) ([]audit.Entry, error) {
	return e.auditor.List(ctx, identity)
}
