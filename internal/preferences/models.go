// Package preferences stores string-valued trading preferences under a
// human-readable name, the server-side analogue of ENS text records.
package preferences

import (
	"sort"
	"strings"

	dErrors "cloakswap/pkg/domain-errors"
)

// KeyPrefix namespaces every record key.
const KeyPrefix = "com.cloakswap."

// MaxValueLength bounds a single record value.
const MaxValueLength = 1024

// Key is a record key in its full form, e.g. com.cloakswap.slippage.
type Key string

const (
	KeyCredentialRef  Key = KeyPrefix + "credentialRef"
	KeyDefaultAsset   Key = KeyPrefix + "defaultAsset"
	KeySlippage       Key = KeyPrefix + "slippage"
	KeyPreferredChain Key = KeyPrefix + "preferredChain"
	KeyPreferredToken Key = KeyPrefix + "preferredToken"
	KeyDisplayName    Key = KeyPrefix + "displayName"
)

// Keys lists every accepted key.
var Keys = []Key{
	KeyCredentialRef,
	KeyDefaultAsset,
	KeySlippage,
	KeyPreferredChain,
	KeyPreferredToken,
	KeyDisplayName,
}

var (
	ErrUnknownKey   = &dErrors.Error{Code: dErrors.CodeInvalidInput, Message: "unknown preference key"}
	ErrValueTooLong = &dErrors.Error{Code: dErrors.CodeInvalidInput, Message: "preference value too long"}
	ErrNotSet       = &dErrors.Error{Code: dErrors.CodeNotFound, Message: "preference not set"}
)

func (k Key) String() string { return string(k) }

// ParseKey accepts the full key or its suffix ("slippage").
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, KeyPrefix) {
		s = KeyPrefix + s
	}
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKey
}

// Records maps keys to values for one name.
type Records map[Key]string

// Sorted returns the keys present in r in lexical order.
func (r Records) Sorted() []Key {
	keys := make([]Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
