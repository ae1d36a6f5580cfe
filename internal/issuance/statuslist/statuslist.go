// Package statuslist implements the compact bitstring registry recording
// revoked and suspended credentials by index.
//
// The encoding is byte-exact: ceil(n/8) bytes, most-significant-bit-first,
// bit i at byte[i/8] position 7-(i%8), 1 meaning revoked or suspended. All
// transitions are pure: they return a new list value and never mutate
// entries of other credentials.
package statuslist

import (
	"fmt"

	"veritas/pkg/canonical"
	dErrors "veritas/pkg/domain-errors"
)

// Purpose declares what the list tracks.
type Purpose string

const (
	PurposeRevocation Purpose = "revocation"
	PurposeSuspension Purpose = "suspension"
)

// Status is the lifecycle state of one entry. Entries only move forward from
// active; they are never removed.
type Status string

const (
	StatusActive    Status = "active"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

// Entry records one credential's position and state in the list.
type Entry struct {
	CredentialID string `json:"credentialId"`
	Index        int    `json:"index"`
	Status       Status `json:"status"`
}

// List is a revocation/suspension registry for a batch of credentials.
type List struct {
	ID      string  `json:"id"`
	Issuer  string  `json:"issuer"`
	Purpose Purpose `json:"purpose"`
	Entries []Entry `json:"entries"`
}

// New creates an empty status list.
func New(id, issuer string, purpose Purpose) List {
	return List{ID: id, Issuer: issuer, Purpose: purpose}
}

// Add appends a credential at the next sequential bit index, starting at 0.
// Indices are never reused. The returned entry records the assignment.
func Add(l List, credentialID string) (List, Entry) {
	entry := Entry{
		CredentialID: credentialID,
		Index:        len(l.Entries),
		Status:       StatusActive,
	}
	next := l
	next.Entries = append(append([]Entry(nil), l.Entries...), entry)
	return next, entry
}

// Revoke returns a new list with the credential's entry revoked.
//
// Errors: CodeNotFound when the credential has no entry.
func Revoke(l List, credentialID string) (List, error) {
	return transition(l, credentialID, StatusRevoked)
}

// Suspend returns a new list with the credential's entry suspended.
//
// Errors: CodeNotFound when the credential has no entry.
func Suspend(l List, credentialID string) (List, error) {
	return transition(l, credentialID, StatusSuspended)
}

// Reinstate returns a new list with the credential's entry active again.
// Reinstatement is only meaningful for suspension lists; revocation is
// expected to be terminal, but the engine does not police caller policy.
func Reinstate(l List, credentialID string) (List, error) {
	return transition(l, credentialID, StatusActive)
}

func transition(l List, credentialID string, to Status) (List, error) {
	next := l
	next.Entries = append([]Entry(nil), l.Entries...)
	for i, entry := range next.Entries {
		if entry.CredentialID == credentialID {
			next.Entries[i].Status = to
			return next, nil
		}
	}
	return List{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("credential %q has no status entry", credentialID))
}

// EncodeBytes derives the raw bitstring from the entries. An empty list
// encodes to a single zero byte.
func EncodeBytes(l List) []byte {
	if len(l.Entries) == 0 {
		return []byte{0}
	}
	bits := make([]byte, (len(l.Entries)+7)/8)
	for _, entry := range l.Entries {
		if entry.Status == StatusRevoked || entry.Status == StatusSuspended {
			bits[entry.Index/8] |= 1 << (7 - entry.Index%8)
		}
	}
	return bits
}

// Encode returns the bitstring as unpadded URL-safe base64, the wire form
// published in a status list credential.
func Encode(l List) string {
	return canonical.EncodeSegment(EncodeBytes(l))
}

// IsSet reports whether the bit at index is set in an encoded bitstring.
//
// Errors: CodeInvalidInput for undecodable input or an out-of-range index.
func IsSet(encoded string, index int) (bool, error) {
	bits, err := canonical.DecodeSegment(encoded)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInvalidInput, "status list is not url-safe base64")
	}
	if index < 0 || index/8 >= len(bits) {
		return false, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("status index %d out of range", index))
	}
	return bits[index/8]&(1<<(7-index%8)) != 0, nil
}
