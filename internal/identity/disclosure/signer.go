package disclosure

import (
	"crypto/ed25519"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veritas/internal/identity/credential"
	dErrors "veritas/pkg/domain-errors"
)

// CoreClaims is the claim set carried by the signed core token. The _sd list
// commits to the disclosure digests so a verifier can match presented
// disclosures against the issuer's signature.
type CoreClaims struct {
	Credential       credential.Credential `json:"vc"`
	DisclosureHashes []string              `json:"_sd"`
	jwt.RegisteredClaims
}

// Signer mints signed cores and key-binding tokens over an Ed25519 key.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
}

// NewSigner creates a signer for the given issuer identifier.
func NewSigner(issuer string, key ed25519.PrivateKey) *Signer {
	return &Signer{key: key, issuer: issuer}
}

// Issue blinds the named subject claims of the credential into disclosures
// and signs a core token committing to their digests. Claim names are
// processed in sorted order so identical inputs yield identical digests.
func (s *Signer) Issue(c credential.Credential, blind []string) (Envelope, error) {
	names := append([]string(nil), blind...)
	sort.Strings(names)

	blinded := c
	blinded.Subject = make(map[string]any, len(c.Subject))
	for k, v := range c.Subject {
		blinded.Subject[k] = v
	}

	var disclosures []Disclosure
	var digests []string
	for _, name := range names {
		value, ok := c.Subject[name]
		if !ok {
			continue
		}
		d, err := New(name, value)
		if err != nil {
			return Envelope{}, err
		}
		digest, err := Digest(d)
		if err != nil {
			return Envelope{}, err
		}
		disclosures = append(disclosures, d)
		digests = append(digests, digest)
		delete(blinded.Subject, name)
	}

	claims := CoreClaims{
		Credential:       blinded,
		DisclosureHashes: digests,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	core, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.key)
	if err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign disclosure core")
	}

	return Envelope{SignedCore: core, Disclosures: disclosures}, nil
}

// SignKeyBinding mints a key-binding token tying a presentation to the
// holder's key for the given audience and nonce.
func (s *Signer) SignKeyBinding(audience, nonce string) (string, error) {
	claims := jwt.MapClaims{
		"aud":   audience,
		"nonce": nonce,
		"iat":   jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign key binding")
	}
	return token, nil
}

// VerifyCore parses and verifies a signed core token against the issuer's
// public key, returning its claims.
func VerifyCore(core string, pub ed25519.PublicKey) (*CoreClaims, error) {
	var claims CoreClaims
	_, err := jwt.ParseWithClaims(core, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "unexpected signing method")
		}
		return pub, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "verify disclosure core")
	}
	return &claims, nil
}

// MatchesCore reports whether every presented disclosure digest appears in
// the signed core's commitment list.
func MatchesCore(claims *CoreClaims, presented []Disclosure) (bool, error) {
	committed := make(map[string]struct{}, len(claims.DisclosureHashes))
	for _, h := range claims.DisclosureHashes {
		committed[h] = struct{}{}
	}
	for _, d := range presented {
		digest, err := Digest(d)
		if err != nil {
			return false, err
		}
		if _, ok := committed[digest]; !ok {
			return false, nil
		}
	}
	return true, nil
}
