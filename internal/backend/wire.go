package backend

import (
	"time"

	"cloakswap/internal/audit"
	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	"cloakswap/internal/receipt"
	"cloakswap/internal/swap"
	id "cloakswap/pkg/domain"
	dErrors "cloakswap/pkg/domain-errors"
)

// JSON shapes of the hook API, shared by the HTTP handler and the Live client.

type CheckRequest struct {
	Identity string `json:"identity"`
	PoolID   string `json:"pool_id"`
}

type CheckResponse struct {
	Identity   string `json:"identity"`
	PoolID     string `json:"pool_id"`
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	ReasonCode uint8  `json:"reason_code"`
	Message    string `json:"message"`
	ReceiptID  string `json:"receipt_id"`
	CheckedAt  int64  `json:"checked_at"`
}

type SwapRequest struct {
	Identity  string  `json:"identity"`
	PoolID    string  `json:"pool_id"`
	FromToken string  `json:"from_token"`
	ToToken   string  `json:"to_token"`
	Amount    float64 `json:"amount"`
}

type SwapResponse struct {
	ReceiptID      string    `json:"receipt_id"`
	CheckReceiptID string    `json:"check_receipt_id"`
	Identity       string    `json:"identity"`
	PoolID         string    `json:"pool_id"`
	FromToken      string    `json:"from_token"`
	ToToken        string    `json:"to_token"`
	Amount         float64   `json:"amount"`
	Balances       []Balance `json:"balances"`
	SettledAt      int64     `json:"settled_at"`
}

// BlockedResponse is the 412 body for a swap refused by the hook.
type BlockedResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Reason           string `json:"reason"`
	ReasonCode       uint8  `json:"reason_code"`
	CheckReceiptID   string `json:"check_receipt_id,omitempty"`
}

type AuditResponse struct {
	Identity string        `json:"identity"`
	Entries  []audit.Entry `json:"entries"`
}

type Balance struct {
	Token  string  `json:"token"`
	Amount float64 `json:"amount"`
}

type BalancesResponse struct {
	Identity string    `json:"identity"`
	Balances []Balance `json:"balances"`
}

func NewCheckResponse(r eligibility.Result) CheckResponse {
	return CheckResponse{
		Identity:   r.Identity.String(),
		PoolID:     r.PoolID.String(),
		Allowed:    r.Allowed,
		Reason:     r.Reason.String(),
		ReasonCode: uint8(r.Reason),
		Message:    r.Message(),
		ReceiptID:  r.ReceiptID.String(),
		CheckedAt:  r.CheckedAt.Unix(),
	}
}

// Result converts the wire form back to a domain result.
func (c CheckResponse) Result() (eligibility.Result, error) {
	reason, err := eligibility.ParseReasonCode(c.Reason)
	if err != nil {
		return eligibility.Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "unexpected reason from live backend")
	}
	return eligibility.Result{
		Identity:  id.Identity(c.Identity),
		PoolID:    id.PoolID(c.PoolID),
		Allowed:   c.Allowed && reason == eligibility.ReasonOK,
		Reason:    reason,
		ReceiptID: receipt.ID(c.ReceiptID),
		CheckedAt: time.Unix(c.CheckedAt, 0),
	}, nil
}

func NewSwapResponse(r *swap.Receipt) SwapResponse {
	return SwapResponse{
		ReceiptID:      r.ID.String(),
		CheckReceiptID: r.CheckReceiptID.String(),
		Identity:       r.Identity.String(),
		PoolID:         r.PoolID.String(),
		FromToken:      r.From.String(),
		ToToken:        r.To.String(),
		Amount:         r.Amount,
		Balances:       NewBalances(r.Balances),
		SettledAt:      r.SettledAt.Unix(),
	}
}

// Receipt converts the wire form back to a swap receipt.
func (s SwapResponse) Receipt() *swap.Receipt {
	return &swap.Receipt{
		ID:             receipt.ID(s.ReceiptID),
		CheckReceiptID: receipt.ID(s.CheckReceiptID),
		Request: swap.Request{
			Identity: id.Identity(s.Identity),
			PoolID:   id.PoolID(s.PoolID),
			From:     id.TokenSymbol(s.FromToken),
			To:       id.TokenSymbol(s.ToToken),
			Amount:   s.Amount,
		},
		Balances:  LedgerBalances(s.Balances),
		SettledAt: time.Unix(s.SettledAt, 0),
	}
}

// NewBalances renders balances as rows in symbol order.
func NewBalances(b ledger.Balances) []Balance {
	rows := make([]Balance, 0, len(b))
	for _, sym := range b.Symbols() {
		rows = append(rows, Balance{Token: sym.String(), Amount: b[sym]})
	}
	return rows
}

func LedgerBalances(rows []Balance) ledger.Balances {
	b := make(ledger.Balances, len(rows))
	for _, row := range rows {
		b[id.TokenSymbol(row.Token)] = row.Amount
	}
	return b
}
