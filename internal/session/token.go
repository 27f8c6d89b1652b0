package session

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Token is an opaque bearer credential.
type Token string

// String never reveals the token; use Value for the raw credential.
func (t Token) String() string {
	if t == "" {
		return "<none>"
	}
	return "token:" + Fingerprint(t)
}

// Value returns the raw credential for the Authorization header.
func (t Token) Value() string {
	return string(t)
}

// Fingerprint is a short BLAKE3 digest of t, safe to log.
func Fingerprint(t Token) string {
	if t == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(t))
	return hex.EncodeToString(sum[:6])
}
