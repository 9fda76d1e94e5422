package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashUserKey returns a filesystem-safe identifier for a user ID.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the dedup digest of extracted deck text.
// The text is normalized first so that identical content survives
// differences in casing and whitespace across extraction runs.
func ContentHash(text string) string {
	normalized := NormalizeText(text)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NormalizeText lowercases and collapses all runs of whitespace to a
// single space.
func NormalizeText(text string) string {
	lowered := strings.ToLower(text)
	return strings.Join(strings.Fields(lowered), " ")
}
