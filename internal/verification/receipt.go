package verification

import (
	"crypto/ed25519"
	"time"

	"github.com/google/uuid"

	"veritas/pkg/canonical"
	dErrors "veritas/pkg/domain-errors"
)

// Receipt is the signed record of a verification outcome. Its JSON shape is
// a published contract; field names must not drift.
type Receipt struct {
	ID              string   `json:"id"`
	Timestamp       string   `json:"timestamp"`
	VerifierID      string   `json:"verifierId"`
	SubjectDID      string   `json:"subjectDid"`
	PoliciesApplied []string `json:"policiesApplied"`
	Decision        Decision `json:"decision"`
	EvidenceHashes  []string `json:"evidenceHashes"`
	Signature       string   `json:"signature,omitempty"`
}

// NewReceipt stamps a fresh id and the current instant onto a verification
// outcome record.
func NewReceipt(verifierID, subjectDID string, policiesApplied []string, decision Decision, evidenceHashes []string) Receipt {
	if policiesApplied == nil {
		policiesApplied = []string{}
	}
	if evidenceHashes == nil {
		evidenceHashes = []string{}
	}
	return Receipt{
		ID:              uuid.NewString(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		VerifierID:      verifierID,
		SubjectDID:      subjectDID,
		PoliciesApplied: policiesApplied,
		Decision:        decision,
		EvidenceHashes:  evidenceHashes,
	}
}

// SerializeReceipt produces the canonical-key-order JSON string of the
// receipt. The signature field, when present, is part of the serialization;
// signing always operates on the unsigned form.
func SerializeReceipt(r Receipt) (string, error) {
	return canonical.Marshal(r)
}

// SignReceipt returns a copy of the receipt carrying an Ed25519 signature
// over its unsigned canonical serialization.
func SignReceipt(r Receipt, key ed25519.PrivateKey) (Receipt, error) {
	unsigned := r
	unsigned.Signature = ""
	payload, err := SerializeReceipt(unsigned)
	if err != nil {
		return Receipt{}, err
	}
	signed := r
	signed.Signature = canonical.EncodeSegment(ed25519.Sign(key, []byte(payload)))
	return signed, nil
}

// VerifyReceiptSignature checks the receipt's signature against the
// verifier's public key.
func VerifyReceiptSignature(r Receipt, pub ed25519.PublicKey) (bool, error) {
	if r.Signature == "" {
		return false, nil
	}
	sig, err := canonical.DecodeSegment(r.Signature)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInvalidInput, "receipt signature is not url-safe base64")
	}
	unsigned := r
	unsigned.Signature = ""
	payload, err := SerializeReceipt(unsigned)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, []byte(payload), sig), nil
}

// ValidateReceipt returns every structural problem found in the receipt.
func ValidateReceipt(r Receipt) []string {
	var problems []string

	if r.ID == "" {
		problems = append(problems, "receipt id is required")
	}
	if r.Timestamp == "" {
		problems = append(problems, "timestamp is required")
	} else if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
		problems = append(problems, "timestamp is not a valid instant")
	}
	if r.VerifierID == "" {
		problems = append(problems, "verifierId is required")
	}
	if r.SubjectDID == "" {
		problems = append(problems, "subjectDid is required")
	}
	if r.PoliciesApplied == nil {
		problems = append(problems, "policiesApplied must be a list")
	}
	if r.EvidenceHashes == nil {
		problems = append(problems, "evidenceHashes must be a list")
	}
	switch r.Decision {
	case DecisionApproved, DecisionDenied, DecisionReviewRequired:
	default:
		problems = append(problems, "decision must be approved, denied or review_required")
	}

	return problems
}
