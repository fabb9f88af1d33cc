// Package domain provides validated string primitives so identities, pool ids
// and token symbols cannot be mixed up at compile time.
package domain

import (
	"strings"
	"unicode"

	dErrors "cloakswap/pkg/domain-errors"
)

const maxIDLength = 256

type (
	// Identity is a wallet-like account string. It is normalized to
	// lower case; the format is otherwise opaque.
	Identity string
	// PoolID identifies a liquidity pool (a bytes32 hex string in practice).
	PoolID string
	// TokenSymbol names a ledger asset.
	TokenSymbol string
	// PreferenceName is the human-readable name preferences are keyed by.
	PreferenceName string
)

// Canonical demo assets.
const (
	TokenUSDC  TokenSymbol = "USDC"
	TokenETH   TokenSymbol = "ETH"
	TokenGGOLD TokenSymbol = "gGOLD"
)

// DefaultTokens are always reported by the ledger, zero when unset.
var DefaultTokens = []TokenSymbol{TokenUSDC, TokenETH, TokenGGOLD}

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseIdentity(s string) (Identity, error) {
	v, err := parseOpaque(s, "identity")
	return Identity(v), err
}

func ParsePoolID(s string) (PoolID, error) {
	v, err := parseOpaque(s, "pool ID")
	return PoolID(v), err
}

func ParsePreferenceName(s string) (PreferenceName, error) {
	v, err := parseOpaque(s, "name")
	return PreferenceName(v), err
}

// ParseTokenSymbol upper-cases a symbol and maps the gold aliases to gGOLD.
func ParseTokenSymbol(s string) (TokenSymbol, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token symbol cannot be empty")
	}
	if len(s) > 16 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token symbol too long")
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "token symbol must be alphanumeric")
		}
	}
	upper := strings.ToUpper(s)
	if upper == "GOLD" || upper == "GGOLD" {
		return TokenGGOLD, nil
	}
	return TokenSymbol(upper), nil
}

func (id Identity) String() string      { return string(id) }
func (id PoolID) String() string        { return string(id) }
func (t TokenSymbol) String() string    { return string(t) }
func (n PreferenceName) String() string { return string(n) }
func (id Identity) IsNil() bool         { return id == "" }
func (id PoolID) IsNil() bool           { return id == "" }

// parseOpaque trims and lower-cases s, then validates the canonical form.
func parseOpaque(s, label string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, label+" contains invalid characters")
		}
	}
	return s, nil
}
