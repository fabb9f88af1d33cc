// Package swap simulates eligibility-gated swaps against the ledger.
package swap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
)

// DefaultSettlementDelay mimics block confirmation.
const DefaultSettlementDelay = 1200 * time.Millisecond

// Checker runs the eligibility gate.
type Checker interface {
	Check(ctx context.Context, identity id.Identity, poolID id.PoolID, now time.Time) (eligibility.Result, error)
}

// Exchanger applies both legs of a swap atomically.
type Exchanger interface {
	Exchange(ctx context.Context, identity id.Identity, from, to id.TokenSymbol, amount float64) (ledger.Balances, error)
}

// Request describes one swap.
type Request struct {
	Identity id.Identity
	PoolID   id.PoolID
	From     id.TokenSymbol
	To       id.TokenSymbol
	Amount   float64
}

// Receipt is the settled swap. ID is distinct from the check's receipt.
type Receipt struct {
	ID             receipt.ID
	CheckReceiptID receipt.ID
	Request
	Balances  ledger.Balances
	SettledAt time.Time
}

// Simulator gates swaps on eligibility and settles them on the ledger.
type Simulator struct {
	checker  Checker
	ledger   Exchanger
	receipts receipt.Generator
	delay    time.Duration
	swaps    *prometheus.CounterVec
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures the Simulator.
type Option func(*Simulator)

// WithSettlementDelay overrides the simulated confirmation wait.
func WithSettlementDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.delay = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// WithMetrics registers the swap outcome counter with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Simulator) {
		s.swaps = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "cloakswap_swaps_total",
			Help: "Simulated swaps by outcome",
		}, []string{"outcome"})
	}
}

// New creates a simulator. Panics if a required dependency is nil.
func New(checker Checker, exchanger Exchanger, receipts receipt.Generator, opts ...Option) *Simulator {
	if checker == nil {
		panic("swap.New: checker is required")
	}
	if exchanger == nil {
		panic("swap.New: ledger is required")
	}
	if receipts == nil {
		panic("swap.New: receipt generator is required")
	}
	s := &Simulator{
		checker:  checker,
		ledger:   exchanger,
		receipts: receipts,
		delay:    DefaultSettlementDelay,
		tracer:   otel.Tracer("cloakswap/swap"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate checks eligibility at now and, if allowed, waits out the
// settlement delay and applies the swap 1:1. A blocked swap returns
// *HookBlockedError. Cancelling ctx during settlement abandons the swap
// without touching balances.
func (s *Simulator) Simulate(ctx context.Context, req Request, now time.Time) (_ *Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "swap.simulate", trace.WithAttributes(
		attribute.String("pool_id", req.PoolID.String()),
		attribute.String("from", req.From.String()),
		attribute.String("to", req.To.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ledger.ValidateAmount(req.Amount); err != nil {
		s.count("invalid")
		return nil, ErrInvalidAmount
	}
	if req.From == req.To {
		s.count("invalid")
		return nil, ErrSameToken
	}

	result, err := s.checker.Check(ctx, req.Identity, req.PoolID, now)
	if err != nil {
		s.count("error")
		return nil, err
	}
	if !result.Allowed {
		s.count("blocked")
		s.logger.InfoContext(ctx, "swap blocked",
			"identity", req.Identity,
			"pool_id", req.PoolID,
			"reason", result.Reason.String(),
		)
		return nil, &HookBlockedError{Reason: result.Reason, CheckReceiptID: result.ReceiptID.String()}
	}

	if err := s.settle(ctx); err != nil {
		s.count("cancelled")
		return nil, err
	}

	balances, err := s.ledger.Exchange(ctx, req.Identity, req.From, req.To, req.Amount)
	if err != nil {
		s.count("error")
		return nil, err
	}

	r := &Receipt{
		ID:             s.receipts.New(fmt.Sprintf("swap_%s_%s_%s_%s_%g", req.Identity, req.PoolID, req.From, req.To, req.Amount)),
		CheckReceiptID: result.ReceiptID,
		Request:        req,
		Balances:       balances,
		SettledAt:      now.Add(s.delay),
	}
	s.count("settled")
	s.logger.InfoContext(ctx, "swap settled",
		"identity", req.Identity,
		"pool_id", req.PoolID,
		"from", req.From,
		"to", req.To,
		"amount", req.Amount,
		"receipt_id", r.ID,
	)
	return r, nil
}

func (s *Simulator) settle(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "swap settlement cancelled")
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) count(outcome string) {
	if s.swaps != nil {
		s.swaps.WithLabelValues(outcome).Inc()
	}
}
