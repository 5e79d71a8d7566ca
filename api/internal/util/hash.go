package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex hashes the image bytes for the audit columns in storage.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
