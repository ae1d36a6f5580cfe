// Package canonical provides the deterministic JSON form used for every hash
// computed by the trust engine. Two deeply equal values must canonicalize to
// the same bytes regardless of construction order, otherwise hash chains and
// evidence fingerprints silently diverge.
package canonical

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

const saltBytes = 16

// Marshal serializes v deterministically: object keys are sorted
// lexicographically at every depth, array order is preserved, and primitives
// follow standard JSON encoding. Structs are accepted and normalized through
// their JSON representation first.
func Marshal(v any) (string, error) {
	normalized, err := normalize(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := write(&buf, normalized); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SHA256Hex returns the lowercase hex SHA-256 digest of text.
func SHA256Hex(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashValue canonicalizes v and returns the hex SHA-256 digest of the result.
func HashValue(v any) (string, error) {
	s, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(s), nil
}

// NewSalt returns a 128-bit random salt in the URL-safe alphabet without
// padding, suitable for disclosure blinding.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodeSegment encodes raw bytes as unpadded URL-safe base64.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSegment decodes an unpadded URL-safe base64 segment.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// normalize round-trips v through encoding/json so that structs, typed maps
// and slices all collapse to the generic tree the writer understands. Numbers
// are kept as json.Number to preserve their literal representation.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

func write(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			if err := write(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case json.Number:
		buf.WriteString(val.String())
		return nil
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}
