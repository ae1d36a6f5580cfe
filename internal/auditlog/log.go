package auditlog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"veritas/pkg/canonical"
	dErrors "veritas/pkg/domain-errors"
)

// LogGenesis is the previousHash of the first entry in the append-only log.
var LogGenesis = strings.Repeat("0", 64)

// Entry is one append-only audit record. Entries are immutable once
// appended; the log only grows.
type Entry struct {
	Index        int            `json:"index"`
	Timestamp    time.Time      `json:"timestamp"`
	Type         string         `json:"type"`
	Actor        string         `json:"actor"`
	Action       string         `json:"action"`
	Resource     string         `json:"resource"`
	Payload      map[string]any `json:"payload"`
	PreviousHash string         `json:"previousHash"`
	Hash         string         `json:"hash"`
}

// ViolationKind tags an integrity violation found during a scan.
type ViolationKind string

const (
	ViolationChainBreak       ViolationKind = "chain_break"
	ViolationHashMismatch     ViolationKind = "hash_mismatch"
	ViolationTimestampReorder ViolationKind = "timestamp_reorder"
)

// Violation locates one integrity problem. Scans collect every violation so
// operators can triage how far back tampering started.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	Index  int           `json:"index"`
	Detail string        `json:"detail"`
}

// Log is the Merkle-backed append-only audit log. Appends are serialized
// behind the mutex because index assignment and previousHash linkage are
// order-dependent; reads take a consistent snapshot under the same lock.
//
// A log has a single state, open. Sealing is a caller policy decision made
// by taking a final Root snapshot.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// LogOption customizes log construction.
type LogOption func(*Log)

// WithClock injects the append timestamp source for deterministic tests.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) {
		l.now = now
	}
}

// NewLog creates an empty open log.
func NewLog(opts ...LogOption) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// hashEntry computes the entry hash over every field except the hash itself.
func hashEntry(e Entry) (string, error) {
	return canonical.HashValue(map[string]any{
		"index":        e.Index,
		"timestamp":    e.Timestamp,
		"type":         e.Type,
		"actor":        e.Actor,
		"action":       e.Action,
		"resource":     e.Resource,
		"payload":      e.Payload,
		"previousHash": e.PreviousHash,
	})
}

// Append assigns the next sequential index, links the entry to its
// predecessor and computes its hash. The completed entry is returned.
func (l *Log) Append(entryType, actor, action, resource string, payload map[string]any) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		Index:        len(l.entries),
		Timestamp:    l.now().UTC(),
		Type:         entryType,
		Actor:        actor,
		Action:       action,
		Resource:     resource,
		Payload:      payload,
		PreviousHash: LogGenesis,
	}
	if len(l.entries) > 0 {
		e.PreviousHash = l.entries[len(l.entries)-1].Hash
	}

	hash, err := hashEntry(e)
	if err != nil {
		return Entry{}, err
	}
	e.Hash = hash
	l.entries = append(l.entries, e)
	return e, nil
}

// Size returns the number of entries.
func (l *Log) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// EntryAt returns the entry at index.
//
// Errors: CodeNotFound for an index outside the log.
func (l *Log) EntryAt(index int) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.entries) {
		return Entry{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no entry at index %d", index))
	}
	return l.entries[index], nil
}

// Snapshot returns a copy of the entries at a consistent cutoff.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Root computes the Merkle root over the current entries' hashes.
func (l *Log) Root() (string, error) {
	return BuildRoot(leafData(l.Snapshot()))
}

// InclusionProof generates a Merkle inclusion proof for the entry at index
// against the current root.
func (l *Log) InclusionProof(index int) (Proof, error) {
	return InclusionProof(leafData(l.Snapshot()), index)
}

// VerifyIntegrity scans entries in [from, to] checking hash-chain
// continuity, hash recomputation and non-decreasing timestamps. Every
// violation found is collected; the scan never stops early. A negative to
// scans through the final entry.
func (l *Log) VerifyIntegrity(from, to int) []Violation {
	entries := l.Snapshot()
	if to < 0 || to >= len(entries) {
		to = len(entries) - 1
	}
	if from < 0 {
		from = 0
	}

	var violations []Violation
	for i := from; i <= to; i++ {
		e := entries[i]

		expectedPrev := LogGenesis
		if i > 0 {
			expectedPrev = entries[i-1].Hash
		}
		if e.PreviousHash != expectedPrev {
			violations = append(violations, Violation{
				Kind:   ViolationChainBreak,
				Index:  i,
				Detail: "previousHash does not match predecessor",
			})
		}

		recomputed, err := hashEntry(e)
		if err != nil || recomputed != e.Hash {
			violations = append(violations, Violation{
				Kind:   ViolationHashMismatch,
				Index:  i,
				Detail: "entry hash does not match its contents",
			})
		}

		if i > 0 && e.Timestamp.Before(entries[i-1].Timestamp) {
			violations = append(violations, Violation{
				Kind:   ViolationTimestampReorder,
				Index:  i,
				Detail: "timestamp precedes the previous entry",
			})
		}
	}
	return violations
}

func leafData(entries []Entry) []string {
	leaves := make([]string, len(entries))
	for i, e := range entries {
		leaves[i] = e.Hash
	}
	return leaves
}
