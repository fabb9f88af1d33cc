package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloakswap/internal/audit"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
	"cloakswap/pkg/platform/circuit"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LiveConfig configures a Live backend.
type LiveConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Breaker    *circuit.Breaker
	Logger     *slog.Logger
}

// Live forwards every call to a remote node's hook API. Transport failures
// and 5xx responses count against the circuit breaker; while it is open calls
// fail fast as unavailable.
type Live struct {
	baseURL string
	client  HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewLive validates the base URL and builds the client.
func NewLive(cfg LiveConfig) (*Live, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid live backend url %q", cfg.BaseURL)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	l := &Live{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.HTTPClient,
		breaker: cfg.Breaker,
		logger:  cfg.Logger,
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: cfg.Timeout}
	}
	if l.breaker == nil {
		l.breaker = circuit.New("live-backend")
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l, nil
}

func (l *Live) Name() Mode { return ModeLive }

func (l *Live) Check(ctx context.Context, identity id.Identity, poolID id.PoolID, _ time.Time) (eligibility.Result, error) {
	var resp CheckResponse
	err := l.do(ctx, http.MethodPost, "/hook/check", CheckRequest{
		Identity: identity.String(),
		PoolID:   poolID.String(),
	}, &resp)
	if err != nil {
		return eligibility.Result{}, err
	}
	return resp.Result()
}

func (l *Live) SimulateSwap(ctx context.Context, req swap.Request, _ time.Time) (*swap.Receipt, error) {
	var resp SwapResponse
	err := l.do(ctx, http.MethodPost, "/hook/swap", SwapRequest{
		Identity:  req.Identity.String(),
		PoolID:    req.PoolID.String(),
		FromToken: req.From.String(),
		ToToken:   req.To.String(),
		Amount:    req.Amount,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Receipt(), nil
}

func (l *Live) AuditLog(ctx context.Context, identity id.Identity) ([]audit.Entry, error) {
	var resp AuditResponse
	if err := l.do(ctx, http.MethodGet, "/hook/audit/"+url.PathEscape(identity.String()), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		resp.Entries = []audit.Entry{}
	}
	return resp.Entries, nil
}

func (l *Live) Balances(ctx context.Context, identity id.Identity) (ledger.Balances, error) {
	var resp BalancesResponse
	if err := l.do(ctx, http.MethodGet, "/balances/"+url.PathEscape(identity.String()), nil, &resp); err != nil {
		return nil, err
	}
	return LedgerBalances(resp.Balances), nil
}

func (l *Live) Ping(ctx context.Context) error {
	return l.do(ctx, http.MethodGet, "/health/live", nil, nil)
}

func (l *Live) do(ctx context.Context, method, path string, body, out any) error {
	if !l.breaker.Allow() {
		return dErrors.New(dErrors.CodeUnavailable, "live backend circuit open")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.recordFailure(ctx, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "live backend timeout")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "live backend unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		l.recordFailure(ctx, err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "live backend read failed")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		err := fmt.Errorf("live backend %s %s: status %d", method, path, resp.StatusCode)
		l.recordFailure(ctx, err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "live backend error")
	}
	// A 4xx is a well-formed answer from a healthy node.
	l.breaker.RecordSuccess()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeRemoteError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "live backend returned malformed body")
	}
	return nil
}

func (l *Live) recordFailure(ctx context.Context, err error) {
	if change := l.breaker.RecordFailure(); change.Opened {
		l.logger.WarnContext(ctx, "live backend circuit opened",
			"base_url", l.baseURL,
			"error", err,
		)
	}
}

// decodeRemoteError maps an error body back to the local error taxonomy.
func decodeRemoteError(status int, raw []byte) error {
	var body BlockedResponse
	_ = json.Unmarshal(raw, &body)

	if status == http.StatusPreconditionFailed && body.Reason != "" {
		reason, err := eligibility.ParseReasonCode(body.Reason)
		if err == nil {
			return &swap.HookBlockedError{Reason: reason, CheckReceiptID: body.CheckReceiptID}
		}
	}

	msg := body.ErrorDescription
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, msg)
	case http.StatusConflict:
		return dErrors.New(dErrors.CodeConflict, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return dErrors.New(dErrors.CodeUnavailable, "live backend rejected credentials")
	case http.StatusPreconditionFailed:
		return dErrors.New(dErrors.CodePolicyViolation, msg)
	default:
		return dErrors.New(dErrors.CodeInvalidInput, msg)
	}
}

var _ Backend = (*Live)(nil)
