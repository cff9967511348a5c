package common

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Hex digests the concatenation of parts and returns it as
// lowercase hex. Callers use it to derive fixed-length cache keys from
// client-supplied values.
func Sha256Hex(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
