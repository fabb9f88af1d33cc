// Package receipt issues opaque transaction-hash-like identifiers for
// simulated writes and evaluations.
package receipt

import (
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// ID is a 0x-prefixed, 64 hex character receipt identifier.
type ID string

func (id ID) String() string { return string(id) }

// Generator issues receipt identifiers.
type Generator interface {
	New(input string) ID
}

// KeccakGenerator hashes the caller's input together with the wall clock, a
// process-wide counter and a random UUID. Identical inputs in the same
// nanosecond still produce distinct receipts.
type KeccakGenerator struct {
	counter atomic.Uint64
	now     func() time.Time
}

// NewKeccak returns a generator using the wall clock.
func NewKeccak() *KeccakGenerator {
	return &KeccakGenerator{now: time.Now}
}

func (g *KeccakGenerator) New(input string) ID {
	n := g.counter.Add(1)
	salt := uuid.New()

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(input))
	h.Write([]byte(strconv.FormatInt(g.now().UnixNano(), 10)))
	h.Write([]byte(strconv.FormatUint(n, 10)))
	h.Write(salt[:])
	return ID("0x" + hex.EncodeToString(h.Sum(nil)))
}

// DeriveUserID returns a stable pseudonymous identifier for an identity.
// Unlike receipts it has no time or random component.
func DeriveUserID(identity string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("cloakswap:user:" + identity))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// Ref returns a stable opaque reference to a value, so logs can correlate
// ciphertexts without carrying them.
func Ref(value string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(value))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:8])
}
