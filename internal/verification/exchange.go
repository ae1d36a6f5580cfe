// Package verification implements the verifier side of the trust protocol:
// the presentation request/response exchange, a declarative policy rule
// evaluator, and signed verification receipts.
package verification

import (
	"github.com/google/uuid"
)

// FieldConstraint restricts one field of a requested credential by JSONPath.
type FieldConstraint struct {
	Path    []string `json:"path"`
	Purpose string   `json:"purpose,omitempty"`
}

// Constraints groups the field constraints of an input descriptor.
type Constraints struct {
	Fields []FieldConstraint `json:"fields,omitempty"`
}

// InputDescriptor declares one credential the verifier needs.
type InputDescriptor struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
	Constraints Constraints `json:"constraints"`
}

// PresentationDefinition is the verifier's declared disclosure requirements.
type PresentationDefinition struct {
	ID               string            `json:"id"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// AuthorizationRequest asks a holder for a presentation matching the
// embedded definition.
type AuthorizationRequest struct {
	VerifierID             string                 `json:"client_id"`
	ResponseType           string                 `json:"response_type"`
	Nonce                  string                 `json:"nonce"`
	State                  string                 `json:"state"`
	PresentationDefinition PresentationDefinition `json:"presentation_definition"`
}

// DescriptorMapEntry locates one submitted credential within the vp token.
type DescriptorMapEntry struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// PresentationSubmission maps the holder's response back onto the definition.
type PresentationSubmission struct {
	ID            string               `json:"id"`
	DefinitionID  string               `json:"definition_id"`
	DescriptorMap []DescriptorMapEntry `json:"descriptor_map"`
}

// AuthorizationResponse is the holder's answer to an authorization request.
type AuthorizationResponse struct {
	VPToken                string                  `json:"vp_token"`
	State                  string                  `json:"state"`
	PresentationSubmission *PresentationSubmission `json:"presentation_submission"`
}

// RequestOption customizes authorization request construction.
type RequestOption func(*AuthorizationRequest)

// WithState supplies an externally managed state value instead of a random one.
func WithState(state string) RequestOption {
	return func(r *AuthorizationRequest) {
		r.State = state
	}
}

// NewAuthorizationRequest builds a presentation request. A fresh nonce is
// always generated; state is random unless supplied. The presentation
// definition is embedded unmodified.
func NewAuthorizationRequest(verifierID string, pd PresentationDefinition, opts ...RequestOption) AuthorizationRequest {
	r := AuthorizationRequest{
		VerifierID:             verifierID,
		ResponseType:           "vp_token",
		Nonce:                  uuid.NewString(),
		PresentationDefinition: pd,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.State == "" {
		r.State = uuid.NewString()
	}
	return r
}

// ValidateAuthorizationResponse checks a holder's response against the state
// and nonce the verifier expects. All failures accumulate; there is no
// short-circuit. An empty expected nonce is itself an input error because it
// means the caller lost track of the exchange.
func ValidateAuthorizationResponse(resp AuthorizationResponse, expectedState, expectedNonce string) []string {
	var problems []string

	if resp.VPToken == "" {
		problems = append(problems, "vp_token is empty")
	}
	if resp.PresentationSubmission == nil {
		problems = append(problems, "presentation_submission is missing")
	} else if len(resp.PresentationSubmission.DescriptorMap) == 0 {
		problems = append(problems, "descriptor_map has no entries")
	}
	if resp.State == "" {
		problems = append(problems, "state is missing")
	} else if resp.State != expectedState {
		problems = append(problems, "state does not match the expected value")
	}
	if expectedNonce == "" {
		problems = append(problems, "expected nonce was not supplied to the validator")
	}

	return problems
}
