package credential

import "slices"

// ValidateStructure returns every structural problem found in the credential.
// An empty result means the credential is well-formed. Cryptographic proofs
// are out of scope here.
func ValidateStructure(c Credential) []string {
	var problems []string

	if !slices.Contains(c.Context, ContextCredentialsV2) {
		problems = append(problems, "missing required @context "+ContextCredentialsV2)
	}
	if c.ID == "" {
		problems = append(problems, "credential id is required")
	}
	if c.Issuer == "" {
		problems = append(problems, "issuer is required")
	}
	if c.ValidFrom == "" {
		problems = append(problems, "validFrom is required")
	}
	if !slices.Contains(c.Type, BaseType) {
		problems = append(problems, "type must include "+BaseType)
	}
	if c.Subject == nil {
		problems = append(problems, "credentialSubject must be a non-array object")
	}

	return problems
}

// ValidateSubjectShape checks an untyped credentialSubject value, as received
// off the wire, for the non-array object invariant. Typed construction via
// New cannot violate it, but HTTP callers pass raw JSON through.
func ValidateSubjectShape(subject any) []string {
	switch subject.(type) {
	case map[string]any:
		return nil
	case nil:
		return []string{"credentialSubject is required"}
	default:
		return []string{"credentialSubject must be a non-array object"}
	}
}
