// Package hasher derives the digest that inscriptions are signed over.
//
// The digest is SHA256(message || salt) with no delimiter or length prefix, so
// ("ab", "c") and ("a", "bc") hash identically. Callers that need domain separation
// must encode it into the message themselves.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns SHA256(utf8(message) || utf8(salt))
func Hash(message, salt string) [32]byte {
	h := sha256.New()
	h.Write([]byte(message))
	h.Write([]byte(salt))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashHex returns Hash as lowercase hex without a 0x prefix
func HashHex(message, salt string) string {
	digest := Hash(message, salt)
	return hex.EncodeToString(digest[:])
}
