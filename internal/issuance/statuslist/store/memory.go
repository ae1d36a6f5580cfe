// Package store provides in-memory persistence for status lists. Lists are
// held in an append-ordered arena with a secondary index from credential id
// to list position, so lookup-by-credential stays O(1) without aliasing the
// stored values.
package store

import (
	"context"
	"sync"

	"veritas/internal/issuance/statuslist"
	"veritas/internal/sentinel"
)

// position locates one credential inside a stored list.
type position struct {
	listID string
	index  int
}

// Memory is an in-memory status list store safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	arena        []statuslist.List
	byListID     map[string]int
	byCredential map[string]position
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		byListID:     make(map[string]int),
		byCredential: make(map[string]position),
	}
}

// Save stores or replaces a list and refreshes the credential index.
func (m *Memory) Save(_ context.Context, l statuslist.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, exists := m.byListID[l.ID]
	if !exists {
		slot = len(m.arena)
		m.arena = append(m.arena, statuslist.List{})
		m.byListID[l.ID] = slot
	}
	m.arena[slot] = l
	for _, entry := range l.Entries {
		m.byCredential[entry.CredentialID] = position{listID: l.ID, index: entry.Index}
	}
	return nil
}

// Update applies fn to the stored list and persists the result. fn runs
// under the write lock, so concurrent read-modify-write sequences cannot
// interleave and overwrite each other's entries.
//
// Errors: sentinel.ErrNotFound for an unknown list; an fn error passes
// through and leaves the stored list untouched.
func (m *Memory) Update(_ context.Context, listID string, fn func(statuslist.List) (statuslist.List, error)) (statuslist.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.byListID[listID]
	if !ok {
		return statuslist.List{}, sentinel.ErrNotFound
	}
	updated, err := fn(m.arena[slot])
	if err != nil {
		return statuslist.List{}, err
	}
	m.arena[slot] = updated
	for _, entry := range updated.Entries {
		m.byCredential[entry.CredentialID] = position{listID: updated.ID, index: entry.Index}
	}
	return updated, nil
}

// Find returns the list with the given id.
func (m *Memory) Find(_ context.Context, listID string) (statuslist.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slot, ok := m.byListID[listID]
	if !ok {
		return statuslist.List{}, sentinel.ErrNotFound
	}
	return m.arena[slot], nil
}

// ActiveCount reports the number of active entries across all stored lists.
func (m *Memory) ActiveCount(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, l := range m.arena {
		for _, entry := range l.Entries {
			if entry.Status == statuslist.StatusActive {
				n++
			}
		}
	}
	return n
}

// Locate returns the list id and bit index holding the credential's entry.
func (m *Memory) Locate(_ context.Context, credentialID string) (string, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.byCredential[credentialID]
	if !ok {
		return "", 0, sentinel.ErrNotFound
	}
	return pos.listID, pos.index, nil
}
