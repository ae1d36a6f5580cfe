// Package credential builds and structurally validates W3C-style verifiable
// credentials and presentations.
//
// Structural validation deliberately stops short of cryptographic proof
// verification: proofs are checked by the verification engine against the
// issuer's resolved keys, while this package guarantees a credential is
// well-formed before any signature is considered.
package credential

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ContextCredentialsV2 is the base JSON-LD context every credential carries.
	ContextCredentialsV2 = "https://www.w3.org/ns/credentials/v2"
	// BaseType is the required base credential type.
	BaseType = "VerifiableCredential"
	// BasePresentationType is the required base presentation type.
	BasePresentationType = "VerifiablePresentation"
)

// Status is a reference to an entry in a revocation/suspension status list.
type Status struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose,omitempty"`
	StatusListIndex      int    `json:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential,omitempty"`
}

// Proof is an embedded data-integrity proof. The engine treats its value as
// opaque; only presence and shape matter structurally.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Credential is a signed claim set about a subject.
type Credential struct {
	Context    []string       `json:"@context"`
	ID         string         `json:"id"`
	Type       []string       `json:"type"`
	Issuer     string         `json:"issuer"`
	ValidFrom  string         `json:"validFrom"`
	ValidUntil string         `json:"validUntil,omitempty"`
	Subject    map[string]any `json:"credentialSubject"`
	Status     *Status        `json:"credentialStatus,omitempty"`
	Proof      *Proof         `json:"proof,omitempty"`
}

// Presentation is a holder-assembled bundle of credentials.
type Presentation struct {
	Context     []string     `json:"@context"`
	Type        []string     `json:"type"`
	Holder      string       `json:"holder"`
	Credentials []Credential `json:"verifiableCredential"`
	Proof       *Proof       `json:"proof,omitempty"`
}

// Option customizes credential construction.
type Option func(*Credential)

// WithTypes appends additional credential types beyond the base type.
func WithTypes(types ...string) Option {
	return func(c *Credential) {
		c.Type = append(c.Type, types...)
	}
}

// WithStatus attaches a status list reference.
func WithStatus(status Status) Option {
	return func(c *Credential) {
		c.Status = &status
	}
}

// WithValidity sets an explicit validity window. A zero until leaves the
// credential open-ended.
func WithValidity(from, until time.Time) Option {
	return func(c *Credential) {
		c.ValidFrom = from.UTC().Format(time.RFC3339)
		if !until.IsZero() {
			c.ValidUntil = until.UTC().Format(time.RFC3339)
		}
	}
}

// WithID overrides the generated credential id.
func WithID(id string) Option {
	return func(c *Credential) {
		c.ID = id
	}
}

// New constructs a credential for the given issuer and subject claims.
// ValidFrom defaults to the current instant and the id to a fresh URN.
func New(issuer string, subject map[string]any, opts ...Option) Credential {
	c := Credential{
		Context:   []string{ContextCredentialsV2},
		ID:        "urn:uuid:" + uuid.NewString(),
		Type:      []string{BaseType},
		Issuer:    issuer,
		ValidFrom: time.Now().UTC().Format(time.RFC3339),
		Subject:   subject,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewPresentation bundles credentials for disclosure by a holder.
func NewPresentation(holder string, creds ...Credential) Presentation {
	return Presentation{
		Context:     []string{ContextCredentialsV2},
		Type:        []string{BasePresentationType},
		Holder:      holder,
		Credentials: creds,
	}
}
