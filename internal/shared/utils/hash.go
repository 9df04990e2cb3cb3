package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short deterministic digest of data, suitable for
// an ETag.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
