package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"veritas/internal/issuance/statuslist"
	"veritas/internal/sentinel"
)

// MemoryStoreSuite tests the status list store. Justification: the revoke
// path looks credentials up by id through the secondary index, and a stale
// index after a Save means revocations land on the wrong bit.
type MemoryStoreSuite struct {
	suite.Suite

	ctx   context.Context
	store *Memory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemory()
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	l, _ = statuslist.Add(l, "cred-a")
	s.Require().NoError(s.store.Save(s.ctx, l))

	found, err := s.store.Find(s.ctx, "list-1")
	s.Require().NoError(err)
	s.Equal(l.ID, found.ID)
	s.Len(found.Entries, 1)
}

func (s *MemoryStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, "absent")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestLocate() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	l, _ = statuslist.Add(l, "cred-a")
	l, _ = statuslist.Add(l, "cred-b")
	s.Require().NoError(s.store.Save(s.ctx, l))

	listID, index, err := s.store.Locate(s.ctx, "cred-b")
	s.Require().NoError(err)
	s.Equal("list-1", listID)
	s.Equal(1, index)

	_, _, err = s.store.Locate(s.ctx, "cred-missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSaveReplaces() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	l, _ = statuslist.Add(l, "cred-a")
	s.Require().NoError(s.store.Save(s.ctx, l))

	revoked, err := statuslist.Revoke(l, "cred-a")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, revoked))

	found, err := s.store.Find(s.ctx, "list-1")
	s.Require().NoError(err)
	s.Equal(statuslist.StatusRevoked, found.Entries[0].Status)
}

func (s *MemoryStoreSuite) TestUpdate() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	s.Require().NoError(s.store.Save(s.ctx, l))

	s.Run("applies and persists the mutation", func() {
		updated, err := s.store.Update(s.ctx, "list-1", func(l statuslist.List) (statuslist.List, error) {
			l, _ = statuslist.Add(l, "cred-a")
			return l, nil
		})
		s.Require().NoError(err)
		s.Len(updated.Entries, 1)

		found, err := s.store.Find(s.ctx, "list-1")
		s.Require().NoError(err)
		s.Len(found.Entries, 1)

		listID, index, err := s.store.Locate(s.ctx, "cred-a")
		s.Require().NoError(err)
		s.Equal("list-1", listID)
		s.Equal(0, index)
	})

	s.Run("unknown list", func() {
		_, err := s.store.Update(s.ctx, "absent", func(l statuslist.List) (statuslist.List, error) {
			return l, nil
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("fn error leaves the list untouched", func() {
		boom := errors.New("transition rejected")
		_, err := s.store.Update(s.ctx, "list-1", func(statuslist.List) (statuslist.List, error) {
			return statuslist.List{}, boom
		})
		s.Require().ErrorIs(err, boom)

		found, err := s.store.Find(s.ctx, "list-1")
		s.Require().NoError(err)
		s.Len(found.Entries, 1)
	})
}

// TestConcurrentUpdatesKeepEveryEntry pins the atomicity contract: parallel
// read-modify-write cycles through Update must each see the previous result,
// so indices stay sequential and no entry is lost to a stale overwrite.
func (s *MemoryStoreSuite) TestConcurrentUpdatesKeepEveryEntry() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	s.Require().NoError(s.store.Save(s.ctx, l))

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.store.Update(s.ctx, "list-1", func(l statuslist.List) (statuslist.List, error) {
				l, _ = statuslist.Add(l, fmt.Sprintf("cred-%d", i))
				return l, nil
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	found, err := s.store.Find(s.ctx, "list-1")
	s.Require().NoError(err)
	s.Require().Len(found.Entries, n, "every concurrent addition must survive")

	seen := make(map[int]struct{})
	for _, entry := range found.Entries {
		seen[entry.Index] = struct{}{}
	}
	s.Len(seen, n, "indices must be unique and sequential")
}

func (s *MemoryStoreSuite) TestActiveCount() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	l, _ = statuslist.Add(l, "cred-a")
	l, _ = statuslist.Add(l, "cred-b")
	s.Require().NoError(s.store.Save(s.ctx, l))
	s.Equal(2, s.store.ActiveCount(s.ctx))

	_, err := s.store.Update(s.ctx, "list-1", func(l statuslist.List) (statuslist.List, error) {
		return statuslist.Revoke(l, "cred-a")
	})
	s.Require().NoError(err)
	s.Equal(1, s.store.ActiveCount(s.ctx))
}

func (s *MemoryStoreSuite) TestStoredListIsACopy() {
	l := statuslist.New("list-1", "did:web:issuer.example", statuslist.PurposeRevocation)
	l, _ = statuslist.Add(l, "cred-a")
	s.Require().NoError(s.store.Save(s.ctx, l))

	// A transition on the caller's value must not leak into the store.
	_, err := statuslist.Revoke(l, "cred-a")
	s.Require().NoError(err)

	found, err := s.store.Find(s.ctx, "list-1")
	s.Require().NoError(err)
	s.Equal(statuslist.StatusActive, found.Entries[0].Status)
}
