package eligibility

import (
	"fmt"
	"time"

	"cloakswap/internal/receipt"
	id "cloakswap/pkg/domain"
)

// ReasonCode is the outcome of a check. Numeric values are stable.
type ReasonCode uint8

const (
	ReasonOK ReasonCode = iota
	ReasonNotRegistered
	ReasonExpired
	ReasonNotEligible
	ReasonPoolNotConfigured
)

var reasonNames = map[ReasonCode]string{
	ReasonOK:                "OK",
	ReasonNotRegistered:     "NOT_REGISTERED",
	ReasonExpired:           "EXPIRED",
	ReasonNotEligible:       "NOT_ELIGIBLE",
	ReasonPoolNotConfigured: "POOL_NOT_CONFIGURED",
}

var reasonMessages = map[ReasonCode]string{
	ReasonOK:                "Eligible.",
	ReasonNotRegistered:     "No credential found. Go to Get Verified.",
	ReasonExpired:           "Credential expired. Re-verify to trade.",
	ReasonNotEligible:       "Not eligible for this market.",
	ReasonPoolNotConfigured: "Pool not configured.",
}

func (r ReasonCode) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REASON_%d", uint8(r))
}

// Message is the user-facing explanation for the code.
func (r ReasonCode) Message() string {
	return reasonMessages[r]
}

// ParseReasonCode maps a wire name back to its code.
func ParseReasonCode(s string) (ReasonCode, error) {
	for code, name := range reasonNames {
		if name == s {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown reason code %q", s)
}

// Result is the outcome of one check. Allowed iff Reason is ReasonOK.
type Result struct {
	Identity  id.Identity
	PoolID    id.PoolID
	Allowed   bool
	Reason    ReasonCode
	ReceiptID receipt.ID
	CheckedAt time.Time
}

// Message is the user-facing explanation of the result.
func (r Result) Message() string {
	return r.Reason.Message()
}
