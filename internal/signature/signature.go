// Package signature authenticates provider webhook calls: an HMAC-SHA256 of
// the raw request body keyed with a shared secret, plus a static API key.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	SignatureHeader = "X-REQUEST-SIGN"
	APIKeyHeader    = "allingame-key"
)

var ErrUnauthorized = errors.New("unauthorized")

type Verifier struct {
	secret []byte
	apiKey []byte
}

// NewVerifier returns a verifier that rejects everything when either
// credential is empty.
func NewVerifier(secret, apiKey string) *Verifier {
	return &Verifier{secret: []byte(secret), apiKey: []byte(apiKey)}
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the API key and the body signature. Every failure wraps
// ErrUnauthorized.
func (v *Verifier) Verify(rawBody []byte, presentedSignature, presentedAPIKey string) error {
	if len(v.secret) == 0 || len(v.apiKey) == 0 {
		return fmt.Errorf("verifier not configured: %w", ErrUnauthorized)
	}

	if presentedAPIKey == "" || subtle.ConstantTimeCompare([]byte(presentedAPIKey), v.apiKey) != 1 {
		return fmt.Errorf("invalid api key: %w", ErrUnauthorized)
	}

	if presentedSignature == "" {
		return fmt.Errorf("missing signature: %w", ErrUnauthorized)
	}

	presented, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(presentedSignature)))
	if err != nil {
		return fmt.Errorf("malformed signature: %w", ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)

	if !hmac.Equal(presented, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}
