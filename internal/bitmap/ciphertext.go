package bitmap

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"

	dErrors "cloakswap/pkg/domain-errors"
)

// CiphertextLen is the byte length of an encoded bitmap (a bytes32 word).
const CiphertextLen = 32

// ErrDecryptionForbidden is returned for every decryption attempt. Plaintext
// bitmaps never leave the evaluator.
var ErrDecryptionForbidden = &dErrors.Error{Code: dErrors.CodeForbidden, Message: "decryption not allowed"}

// ErrMalformedCiphertext reports a ciphertext that is not a 0x-prefixed bytes32.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Encrypt encodes a bitmap as a 0x-prefixed, 64 hex character bytes32 word.
// This is a placeholder encoding with no confidentiality.
func Encrypt(b Bitmap) string {
	var word [CiphertextLen]byte
	binary.BigEndian.PutUint64(word[CiphertextLen-8:], uint64(b))
	return "0x" + hex.EncodeToString(word[:])
}

// Decrypt always fails.
func Decrypt(string) (Bitmap, error) {
	return 0, ErrDecryptionForbidden
}

// ValidCiphertext reports whether ct has the encoded bytes32 shape.
func ValidCiphertext(ct string) bool {
	_, err := decode(ct)
	return err == nil
}

// EvaluateCiphertext applies Evaluate to an encoded bitmap without exposing
// the decoded value.
func EvaluateCiphertext(ct string, m Mask) (bool, error) {
	b, err := decode(ct)
	if err != nil {
		return false, err
	}
	return Evaluate(b, m), nil
}

func decode(ct string) (Bitmap, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(ct), "0x")
	if !ok || len(body) != 2*CiphertextLen {
		return 0, ErrMalformedCiphertext
	}
	word, err := hex.DecodeString(body)
	if err != nil {
		return 0, ErrMalformedCiphertext
	}
	// Bits beyond 64 are never produced by Build.
	for _, by := range word[:CiphertextLen-8] {
		if by != 0 {
			return 0, ErrMalformedCiphertext
		}
	}
	return Bitmap(binary.BigEndian.Uint64(word[CiphertextLen-8:])), nil
}
