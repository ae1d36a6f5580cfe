// Package issuance implements the offer, token and credential legs of the
// issuance handshake, credential templates, and revocation status lists.
package issuance

import "strings"

// Format identifies a credential envelope format the issuer can mint.
type Format string

const (
	// FormatSDJWT is the selective-disclosure envelope format.
	FormatSDJWT Format = "vc+sd-jwt"
	// FormatJWTVC is a plain JWT-wrapped credential.
	FormatJWTVC Format = "jwt_vc_json"
)

// IssuerMetadata advertises the issuer's endpoints and supported formats.
type IssuerMetadata struct {
	CredentialIssuer   string   `json:"credential_issuer"`
	CredentialEndpoint string   `json:"credential_endpoint"`
	TokenEndpoint      string   `json:"token_endpoint"`
	FormatsSupported   []Format `json:"formats_supported,omitempty"`
}

// MetadataOption customizes issuer metadata construction.
type MetadataOption func(*IssuerMetadata)

// WithCredentialEndpoint overrides the default credential endpoint.
func WithCredentialEndpoint(url string) MetadataOption {
	return func(m *IssuerMetadata) {
		m.CredentialEndpoint = url
	}
}

// WithTokenEndpoint overrides the default token endpoint.
func WithTokenEndpoint(url string) MetadataOption {
	return func(m *IssuerMetadata) {
		m.TokenEndpoint = url
	}
}

// WithFormats declares the envelope formats the issuer supports.
func WithFormats(formats ...Format) MetadataOption {
	return func(m *IssuerMetadata) {
		m.FormatsSupported = formats
	}
}

// NewIssuerMetadata builds issuer metadata for the given base URL. The
// credential and token endpoints default to {issuerURL}/credentials and
// {issuerURL}/token when not overridden.
func NewIssuerMetadata(issuerURL string, opts ...MetadataOption) IssuerMetadata {
	base := strings.TrimSuffix(issuerURL, "/")
	m := IssuerMetadata{
		CredentialIssuer:   base,
		CredentialEndpoint: base + "/credentials",
		TokenEndpoint:      base + "/token",
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
