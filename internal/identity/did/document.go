package did

import "fmt"

// ContextDIDV1 is the JSON-LD context for DID core documents.
const ContextDIDV1 = "https://www.w3.org/ns/did/v1"

// VerificationMethod is a single cryptographic key entry in a DID document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Service is an endpoint advertised by the identity, such as a credential
// status or messaging service.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is a resolved DID document. Authentication and assertion entries
// are references into VerificationMethod by id.
type Document struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	AssertionMethod    []string             `json:"assertionMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// Validate checks the document's structural invariant: every reference in
// Authentication and AssertionMethod must resolve to a VerificationMethod
// entry. Violations are returned as a list so callers see all of them.
func (d *Document) Validate() []string {
	known := make(map[string]struct{}, len(d.VerificationMethod))
	for _, vm := range d.VerificationMethod {
		known[vm.ID] = struct{}{}
	}

	var problems []string
	for _, ref := range d.Authentication {
		if _, ok := known[ref]; !ok {
			problems = append(problems, fmt.Sprintf("authentication reference %q has no verification method", ref))
		}
	}
	for _, ref := range d.AssertionMethod {
		if _, ok := known[ref]; !ok {
			problems = append(problems, fmt.Sprintf("assertionMethod reference %q has no verification method", ref))
		}
	}
	return problems
}

// Method returns the DID method segment of the document identifier, or an
// empty string when the id is not a DID.
func (d *Document) Method() string {
	const prefix = "did:"
	if len(d.ID) <= len(prefix) || d.ID[:len(prefix)] != prefix {
		return ""
	}
	rest := d.ID[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			return rest[:i]
		}
	}
	return rest
}
