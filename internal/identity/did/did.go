// Package did constructs and resolves the decentralized identifiers used by
// the trust engine. Only local, deterministic resolution is implemented here:
// network retrieval of did:web documents is owned by callers.
package did

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	dErrors "veritas/pkg/domain-errors"
)

const (
	// MethodKey is the did:key method prefix.
	MethodKey = "did:key:"
	// MethodWeb is the did:web method prefix.
	MethodWeb = "did:web:"

	// multibaseBase58BTC is the multibase marker for base58btc encoding.
	multibaseBase58BTC = "z"
)

// ed25519Multicodec is the multicodec prefix for an Ed25519 public key.
var ed25519Multicodec = []byte{0xED, 0x01}

// CreateKey builds a did:key identifier from raw Ed25519 public key bytes.
// The key bytes are multicodec-prefixed, base58btc-encoded and carry the
// multibase marker. Identical keys always yield identical identifiers.
func CreateKey(pub ed25519.PublicKey) string {
	prefixed := make([]byte, 0, len(ed25519Multicodec)+len(pub))
	prefixed = append(prefixed, ed25519Multicodec...)
	prefixed = append(prefixed, pub...)
	return MethodKey + multibaseBase58BTC + base58.Encode(prefixed)
}

// CreateWeb builds a did:web identifier for a domain with optional path
// segments. Colons in the domain are percent-encoded so a port survives the
// method's colon-separated syntax.
func CreateWeb(domain string, path ...string) string {
	id := MethodWeb + strings.ReplaceAll(domain, ":", "%3A")
	for _, segment := range path {
		if segment == "" {
			continue
		}
		id += ":" + segment
	}
	return id
}

// Resolve builds a minimal DID document for the supported methods.
//
// did:key yields an Ed25519 verification method derived from the multibase
// suffix; did:web yields a generic key reference; any other method yields a
// document carrying only the identifier itself.
//
// Errors: CodeInvalidDID when the input does not start with "did:".
func Resolve(id string) (*Document, error) {
	if !strings.HasPrefix(id, "did:") {
		return nil, dErrors.New(dErrors.CodeInvalidDID, fmt.Sprintf("not a did: %q", id))
	}

	switch {
	case strings.HasPrefix(id, MethodKey):
		return resolveKey(id), nil
	case strings.HasPrefix(id, MethodWeb):
		return resolveWeb(id), nil
	default:
		return &Document{Context: []string{ContextDIDV1}, ID: id}, nil
	}
}

func resolveKey(id string) *Document {
	suffix := strings.TrimPrefix(id, MethodKey)
	vmID := id + "#" + suffix
	return &Document{
		Context: []string{ContextDIDV1},
		ID:      id,
		VerificationMethod: []VerificationMethod{{
			ID:                 vmID,
			Type:               "Ed25519VerificationKey2020",
			Controller:         id,
			PublicKeyMultibase: suffix,
		}},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}
}

func resolveWeb(id string) *Document {
	vmID := id + "#key-1"
	return &Document{
		Context: []string{ContextDIDV1},
		ID:      id,
		VerificationMethod: []VerificationMethod{{
			ID:         vmID,
			Type:       "JsonWebKey2020",
			Controller: id,
		}},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}
}
