package issuance

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"

	"veritas/pkg/canonical"
)

// Default token lifetimes, in seconds.
const (
	DefaultAccessTokenTTL = 86400
	DefaultCNonceTTL      = 300
)

// TokenResponse is returned from the token endpoint after a wallet redeems a
// pre-authorized code.
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int    `json:"expires_in"`
	CNonce          string `json:"c_nonce"`
	CNonceExpiresIn int    `json:"c_nonce_expires_in"`
}

// TokenOption customizes token response construction.
type TokenOption func(*TokenResponse)

// WithAccessToken supplies an externally minted access token.
func WithAccessToken(token string) TokenOption {
	return func(t *TokenResponse) {
		t.AccessToken = token
	}
}

// WithCNonce supplies an externally minted credential nonce.
func WithCNonce(nonce string) TokenOption {
	return func(t *TokenResponse) {
		t.CNonce = nonce
	}
}

// NewTokenResponse constructs a token response, generating a random access
// token and a short-lived credential nonce when none are supplied.
func NewTokenResponse(opts ...TokenOption) (TokenResponse, error) {
	t := TokenResponse{
		TokenType:       "bearer",
		ExpiresIn:       DefaultAccessTokenTTL,
		CNonceExpiresIn: DefaultCNonceTTL,
	}
	for _, opt := range opts {
		opt(&t)
	}

	if t.AccessToken == "" {
		token, err := randomToken()
		if err != nil {
			return TokenResponse{}, err
		}
		t.AccessToken = token
	}
	if t.CNonce == "" {
		t.CNonce = uuid.NewString()
	}
	return t, nil
}

// randomToken returns 256 bits of randomness in the URL-safe alphabet.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return canonical.EncodeSegment(b), nil
}
