package issuance

import (
	"fmt"
	"slices"
)

// RequestProof is the optional proof-of-possession object on a credential
// request. Only the jwt proof type is carried today.
type RequestProof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt,omitempty"`
}

// CredentialRequest is a wallet's request for a credential after obtaining
// an access token.
type CredentialRequest struct {
	Format  Format         `json:"format"`
	Types   []string       `json:"types"`
	Subject map[string]any `json:"credentialSubject,omitempty"`
	Proof   *RequestProof  `json:"proof,omitempty"`
}

// ValidateCredentialRequest returns every problem found with the request
// against the issuer's supported formats. It never returns early: callers
// decide how many problems are blocking.
func ValidateCredentialRequest(req CredentialRequest, supported []Format) []string {
	var problems []string

	if !slices.Contains(supported, req.Format) {
		problems = append(problems, fmt.Sprintf("format %q is not supported by this issuer", req.Format))
	}
	if len(req.Types) == 0 {
		problems = append(problems, "at least one credential type is required")
	}
	if req.Proof != nil && req.Proof.JWT == "" {
		problems = append(problems, "proof object present but proof token is empty")
	}

	return problems
}
