package vc

// Package vc hosts the stable, minimal wire DTOs shared with the thin
// front-ends (issuer console, wallet, verifier portal). Keep these
// versioned independently from any internal schemas; front-ends pin or roll
// forward on their own schedule.

// ContractVersion identifies the contract schema version for compatibility
// checks. Bump on breaking changes to the shapes below.
const ContractVersion = "v0.2.0"

// PolicyRule is the published JSON shape of one policy condition.
type PolicyRule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// VerificationReceipt is the published JSON shape of a verification outcome.
type VerificationReceipt struct {
	ID              string   `json:"id"`
	Timestamp       string   `json:"timestamp"`
	VerifierID      string   `json:"verifierId"`
	SubjectDID      string   `json:"subjectDid"`
	PoliciesApplied []string `json:"policiesApplied"`
	Decision        string   `json:"decision"`
	EvidenceHashes  []string `json:"evidenceHashes"`
	Signature       string   `json:"signature,omitempty"`
}

// CredentialResponse is returned from the credential endpoint once a request
// validates. Credential carries the compact envelope serialization.
type CredentialResponse struct {
	Format     string `json:"format"`
	Credential string `json:"credential,omitempty"`
	CNonce     string `json:"c_nonce,omitempty"`
}

// StatusListView is the published form of a status list: the encoded
// bitstring plus enough context to locate a credential's bit.
type StatusListView struct {
	ID          string `json:"id"`
	Issuer      string `json:"issuer"`
	Purpose     string `json:"purpose"`
	EncodedList string `json:"encodedList"`
	Size        int    `json:"size"`
}

// InclusionProofView is the published form of an audit inclusion proof.
type InclusionProofView struct {
	Index    int         `json:"index"`
	LeafHash string      `json:"leafHash"`
	Path     []ProofStep `json:"path"`
	Root     string      `json:"root"`
}

// ProofStep is one sibling of an inclusion proof path.
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}
