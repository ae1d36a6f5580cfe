// Package auditlog provides the tamper-evident audit facilities of the trust
// engine: a linear hash chain for compliance-style event trails and a
// Merkle-backed append-only log supporting per-entry inclusion proofs.
//
// The two designs coexist on purpose. The linear chain is the lightweight
// trail consumed by compliance tooling; the Merkle log serves verifiers that
// need provable inclusion under a published root. The chain variant uses the
// GENESIS sentinel, the Merkle log the all-zero hash; both are documented
// wire contracts.
package auditlog

import (
	"time"

	"veritas/pkg/canonical"
)

// ChainGenesis is the previousHash of the first event in a linear chain.
const ChainGenesis = "GENESIS"

// Reasons reported by VerifyChain.
const (
	ReasonPrevHashMismatch  = "previous hash mismatch"
	ReasonEventHashMismatch = "event hash mismatch"
)

// ChainEvent is one event in the linear compliance trail.
type ChainEvent struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Actor        string         `json:"actor"`
	Payload      map[string]any `json:"payload"`
	Timestamp    time.Time      `json:"timestamp"`
	PreviousHash string         `json:"previousHash"`
	Hash         string         `json:"hash"`
}

// ChainVerification reports the outcome of a chain walk. On failure, Index
// locates the first offending event.
type ChainVerification struct {
	Valid  bool
	Index  int
	Reason string
}

// hashChainEvent computes the event hash over every field except the hash
// itself, via the canonical form.
func hashChainEvent(e ChainEvent) (string, error) {
	return canonical.HashValue(map[string]any{
		"id":           e.ID,
		"type":         e.Type,
		"actor":        e.Actor,
		"payload":      e.Payload,
		"timestamp":    e.Timestamp,
		"previousHash": e.PreviousHash,
	})
}

// AppendChain links the event onto the chain: previousHash is taken from the
// last event (or the genesis sentinel), the event hash is computed, and a
// new chain value is returned. The input chain is never mutated.
func AppendChain(chain []ChainEvent, e ChainEvent) ([]ChainEvent, error) {
	if len(chain) == 0 {
		e.PreviousHash = ChainGenesis
	} else {
		e.PreviousHash = chain[len(chain)-1].Hash
	}
	hash, err := hashChainEvent(e)
	if err != nil {
		return nil, err
	}
	e.Hash = hash
	return append(append([]ChainEvent(nil), chain...), e), nil
}

// VerifyChain walks the chain recomputing every hash and fails closed at the
// first mismatch, reporting the failing index and whether the break was in
// the linkage or the event hash itself.
func VerifyChain(chain []ChainEvent) ChainVerification {
	expectedPrev := ChainGenesis
	for i, e := range chain {
		if e.PreviousHash != expectedPrev {
			return ChainVerification{Index: i, Reason: ReasonPrevHashMismatch}
		}
		recomputed, err := hashChainEvent(e)
		if err != nil || recomputed != e.Hash {
			return ChainVerification{Index: i, Reason: ReasonEventHashMismatch}
		}
		expectedPrev = e.Hash
	}
	return ChainVerification{Valid: true, Index: -1}
}
