package disclosure

import (
	"strings"

	dErrors "veritas/pkg/domain-errors"
)

// Separator joins the signed core, disclosures and optional key-binding token
// in the compact serialization.
const Separator = "~"

// Envelope is a selective-disclosure envelope: a signed core committing to
// the disclosure digests, the detachable disclosures themselves, and an
// optional key-binding token proving holder possession.
type Envelope struct {
	SignedCore  string
	Disclosures []Disclosure
	KeyBinding  string
}

// Serialize produces the compact form
//
//	<core>~<d1>~<d2>~...~[<keyBindingToken>]
//
// with a trailing separator when no key-binding token is present and none
// when one is. Parse is the exact inverse.
func (e Envelope) Serialize() (string, error) {
	var b strings.Builder
	b.WriteString(e.SignedCore)
	for _, d := range e.Disclosures {
		encoded, err := Encode(d)
		if err != nil {
			return "", err
		}
		b.WriteString(Separator)
		b.WriteString(encoded)
	}
	b.WriteString(Separator)
	b.WriteString(e.KeyBinding)
	return b.String(), nil
}

// Filter returns a copy of the envelope retaining only the named disclosures.
// The signed core is untouched, so the issuer's signature stays valid.
func (e Envelope) Filter(names []string) Envelope {
	return Envelope{
		SignedCore:  e.SignedCore,
		Disclosures: Select(e.Disclosures, names),
		KeyBinding:  e.KeyBinding,
	}
}

// Parse decodes the compact serialization back into an envelope.
//
// Errors: CodeInvalidDisclosure when the token has no separator, an empty
// signed core, or an undecodable disclosure segment.
func Parse(token string) (Envelope, error) {
	parts := strings.Split(token, Separator)
	if len(parts) < 2 {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidDisclosure, "compact serialization needs at least one separator")
	}
	if parts[0] == "" {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidDisclosure, "signed core is empty")
	}

	env := Envelope{SignedCore: parts[0]}

	// The final segment is the key-binding token; an empty final segment
	// means the serialization ended with a bare trailing separator.
	env.KeyBinding = parts[len(parts)-1]

	for _, segment := range parts[1 : len(parts)-1] {
		d, err := Decode(segment)
		if err != nil {
			return Envelope{}, err
		}
		env.Disclosures = append(env.Disclosures, d)
	}
	return env, nil
}
