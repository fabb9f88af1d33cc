package swap

import (
	"fmt"

	"cloakswap/internal/eligibility"
	"cloakswap/internal/ledger"
	dErrors "cloakswap/pkg/domain-errors"
)

// ErrInvalidAmount is returned before any store access for non-finite or
// non-positive amounts.
var ErrInvalidAmount = ledger.ErrInvalidAmount

// ErrSameToken rejects swaps whose legs name the same asset.
var ErrSameToken = &dErrors.Error{Code: dErrors.CodeInvalidInput, Message: "from and to tokens must differ"}

// HookBlockedError reports a swap refused by the eligibility check. No
// balances were touched.
type HookBlockedError struct {
	Reason         eligibility.ReasonCode
	CheckReceiptID string
}

func (e *HookBlockedError) Error() string {
	return fmt.Sprintf("swap blocked: %s", e.Reason)
}

// Unwrap exposes the domain classification for transport mapping.
func (e *HookBlockedError) Unwrap() error {
	return &dErrors.Error{Code: dErrors.CodePolicyViolation, Message: e.Reason.Message()}
}
