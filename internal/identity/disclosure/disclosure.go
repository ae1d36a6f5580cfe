// Package disclosure implements selective-disclosure envelopes: a signed core
// token plus detachable salted claim triples the holder can filter without
// re-signing.
package disclosure

import (
	"encoding/json"
	"fmt"
	"slices"

	"veritas/pkg/canonical"
	dErrors "veritas/pkg/domain-errors"
)

// Disclosure is one detachable (salt, claim name, claim value) triple.
type Disclosure struct {
	Salt  string
	Name  string
	Value any
}

// New creates a disclosure for a claim with a fresh salt.
func New(name string, value any) (Disclosure, error) {
	salt, err := canonical.NewSalt()
	if err != nil {
		return Disclosure{}, err
	}
	return Disclosure{Salt: salt, Name: name, Value: value}, nil
}

// Encode serializes the disclosure as the URL-safe encoding of the JSON
// array [salt, name, value].
func Encode(d Disclosure) (string, error) {
	raw, err := json.Marshal([]any{d.Salt, d.Name, d.Value})
	if err != nil {
		return "", fmt.Errorf("encode disclosure: %w", err)
	}
	return canonical.EncodeSegment(raw), nil
}

// Decode is the exact inverse of Encode.
//
// Errors: CodeInvalidDisclosure for malformed base64, malformed JSON, or an
// array that is not exactly [salt, name, value].
func Decode(encoded string) (Disclosure, error) {
	raw, err := canonical.DecodeSegment(encoded)
	if err != nil {
		return Disclosure{}, dErrors.Wrap(err, dErrors.CodeInvalidDisclosure, "disclosure is not url-safe base64")
	}
	var parts []any
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Disclosure{}, dErrors.Wrap(err, dErrors.CodeInvalidDisclosure, "disclosure is not a JSON array")
	}
	if len(parts) != 3 {
		return Disclosure{}, dErrors.New(dErrors.CodeInvalidDisclosure, fmt.Sprintf("disclosure array has %d elements, want 3", len(parts)))
	}
	salt, saltOK := parts[0].(string)
	name, nameOK := parts[1].(string)
	if !saltOK || !nameOK {
		return Disclosure{}, dErrors.New(dErrors.CodeInvalidDisclosure, "disclosure salt and name must be strings")
	}
	return Disclosure{Salt: salt, Name: name, Value: parts[2]}, nil
}

// Digest returns the hex SHA-256 digest of the encoded disclosure, the value
// the signed core commits to.
func Digest(d Disclosure) (string, error) {
	encoded, err := Encode(d)
	if err != nil {
		return "", err
	}
	return canonical.SHA256Hex(encoded), nil
}

// Select returns the disclosures whose claim names appear in names,
// preserving the original order. It never mutates the input.
func Select(all []Disclosure, names []string) []Disclosure {
	selected := make([]Disclosure, 0, len(names))
	for _, d := range all {
		if slices.Contains(names, d.Name) {
			selected = append(selected, d)
		}
	}
	return selected
}
