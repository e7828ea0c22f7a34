package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes yields 256 bits of entropy per session token.
const tokenBytes = 32

// NewSessionToken returns a fresh opaque session token from the system CSPRNG.
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
