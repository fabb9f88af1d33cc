package audit

import (
	"time"

	id "cloakswap/pkg/domain"
)

// MaxEntries is the per-identity cap; older entries are dropped first.
const MaxEntries = 20

// Entry is one recorded eligibility evaluation. The refs are opaque handles,
// never plaintext attributes.
type Entry struct {
	Timestamp     time.Time `json:"ts"`
	PoolID        string    `json:"poolId"`
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason"`
	ReasonCode    uint8     `json:"reasonCode"`
	Message       string    `json:"message"`
	UserBitmapRef string    `json:"userBmp,omitempty"`
	RuleMaskRef   string    `json:"ruleMask"`
	ReceiptID     string    `json:"txHash"`
}

// Event is the fan-out form of an entry, keyed by identity.
type Event struct {
	Identity id.Identity `json:"identity"`
	Entry
}
