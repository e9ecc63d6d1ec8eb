package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultTokenPrefix = "hms_"

// SessionTokens mints opaque bearer tokens. The prefix makes leaked tokens
// easy to spot in logs and secret scanners.
type SessionTokens struct {
	Size   int
	Prefix string
}

func (g SessionTokens) NewToken() (string, error) {
	size := g.Size
	if size < 16 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	prefix := g.Prefix
	if prefix == "" {
		prefix = defaultTokenPrefix
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
