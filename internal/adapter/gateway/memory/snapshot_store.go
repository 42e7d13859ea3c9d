package memory

import (
	"sync"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
)

// StoreObserver is told about every installed snapshot; *metrics.Registry implements it.
type StoreObserver interface {
	Snapshot(version uint64, reference, compA, compB, spotOnly int)
}

// SnapshotStore keeps the live snapshot behind a mutex. Values are deep-copied
// on the way in and on the way out, so callers never share slices with it.
type SnapshotStore struct {
	mu  sync.RWMutex
	cur snapshot.Snapshot
	obs StoreObserver
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(obs StoreObserver) *SnapshotStore {
	return &SnapshotStore{obs: obs}
}

func (s *SnapshotStore) Read() snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Replace installs next as a whole. Version is assigned here.
func (s *SnapshotStore) Replace(next snapshot.Snapshot) snapshot.Snapshot {
	in := next.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	in.Version = s.cur.Version + 1
	s.cur = in
	s.notify()
	return s.cur.Clone()
}

// MergeFields overwrites only the fields present in p.
func (s *SnapshotStore) MergeFields(p snapshot.Partial) snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Clone()
	if p.ReferenceList != nil {
		next.ReferenceList = listings.CloneEntries(nonNil(*p.ReferenceList))
	}
	if p.ComparisonAList != nil {
		next.ComparisonAList = listings.CloneEntries(nonNil(*p.ComparisonAList))
	}
	if p.ComparisonBList != nil {
		next.ComparisonBList = listings.CloneEntries(nonNil(*p.ComparisonBList))
	}
	if p.SpotOnlyList != nil {
		next.SpotOnlyList = listings.CloneEntries(nonNil(*p.SpotOnlyList))
	}
	if st := p.Stats; st != nil {
		if st.ReferenceCount != nil {
			next.Stats.ReferenceCount = *st.ReferenceCount
		}
		if st.ComparisonACount != nil {
			next.Stats.ComparisonACount = *st.ComparisonACount
		}
		if st.ComparisonBCount != nil {
			next.Stats.ComparisonBCount = *st.ComparisonBCount
		}
		if st.SpotOnlyCount != nil {
			next.Stats.SpotOnlyCount = *st.SpotOnlyCount
		}
		if st.Unavailable != nil {
			next.Stats.Unavailable = append([]string{}, (*st.Unavailable)...)
		}
	}
	if p.LastUpdated != nil {
		next.LastUpdated = p.LastUpdated.UTC()
	}
	if p.Source != snapshot.SourceNone {
		next.Source = p.Source
	}
	next.Version = s.cur.Version + 1
	s.cur = next
	s.notify()
	return s.cur.Clone()
}

// notify runs under the write lock so observers see versions in order.
func (s *SnapshotStore) notify() {
	if s.obs == nil {
		return
	}
	c := &s.cur
	s.obs.Snapshot(c.Version, len(c.ReferenceList), len(c.ComparisonAList), len(c.ComparisonBList), len(c.SpotOnlyList))
}

// an explicitly pushed empty list stays an empty list, not "absent"
func nonNil(in []listings.RankedEntry) []listings.RankedEntry {
	if in == nil {
		return []listings.RankedEntry{}
	}
	return in
}
