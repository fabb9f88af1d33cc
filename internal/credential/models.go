package credential

import (
	"time"

	dErrors "cloakswap/pkg/domain-errors"
)

// Credential is the encrypted eligibility profile stored for one identity.
// A revoked credential keeps its record with an empty ciphertext.
type Credential struct {
	Ciphertext string `json:"bitmapCiphertext"`
	Expiry     int64  `json:"expiry"`
}

// Revoked reports whether the ciphertext has been cleared.
func (c Credential) Revoked() bool {
	return c.Ciphertext == ""
}

// ValidAt reports whether the credential is usable at now. Expiry is
// exclusive: a credential expiring exactly at now is no longer valid.
func (c Credential) ValidAt(now time.Time) bool {
	return !c.Revoked() && c.Expiry > now.Unix()
}

// ExpiredAt reports whether the expiry has been reached.
func (c Credential) ExpiredAt(now time.Time) bool {
	return c.Expiry <= now.Unix()
}

// Status is the lifecycle state of an identity's credential.
type Status string

const (
	StatusAbsent  Status = "absent"
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// StatusOf derives the lifecycle state. Revocation wins over expiry.
func StatusOf(c Credential, exists bool, now time.Time) Status {
	switch {
	case !exists:
		return StatusAbsent
	case c.Revoked():
		return StatusRevoked
	case c.ExpiredAt(now):
		return StatusExpired
	default:
		return StatusValid
	}
}

var (
	// ErrAlreadyRegistered is returned by Register when a record exists.
	ErrAlreadyRegistered = &dErrors.Error{Code: dErrors.CodeConflict, Message: "already registered"}
	// ErrNotRegistered is returned by Update and Revoke when no record exists.
	ErrNotRegistered = &dErrors.Error{Code: dErrors.CodeNotFound, Message: "not registered"}
	// ErrEmptyCiphertext rejects writes that would create a revoked-looking record.
	ErrEmptyCiphertext = &dErrors.Error{Code: dErrors.CodeInvalidInput, Message: "ciphertext is required"}
)
