package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	LoanPrefix        = "LN"
	ApplicationPrefix = "APP"
)

// NewID32 returns exactly 32 hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewDisplayID returns a short human-readable code, e.g. "LN-3F9A6A1B".
func NewDisplayID(prefix string) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(b))
}
