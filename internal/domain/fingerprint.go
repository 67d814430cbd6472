package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex-encoded SHA-256 digest of the normalized
// document text. Two submissions with identical cleaned text map to the
// same fingerprint, which is what duplicate detection keys on.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
