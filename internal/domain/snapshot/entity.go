package snapshot

import (
	"time"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/listings"
)

type Source string

const (
	SourceNone   Source = ""
	SourceLocal  Source = "local"
	SourceWorker Source = "worker"
)

type Stats struct {
	ReferenceCount   int
	ComparisonACount int
	ComparisonBCount int
	SpotOnlyCount    int
	// names of sources that could not be reached in the cycle that produced the lists
	Unavailable []string
}

// Snapshot is the single unit of truth served to readers.
// Version is assigned by the store on every write.
type Snapshot struct {
	ReferenceList   []listings.RankedEntry
	ComparisonAList []listings.RankedEntry
	ComparisonBList []listings.RankedEntry
	SpotOnlyList    []listings.RankedEntry
	Stats           Stats
	LastUpdated     time.Time
	Version         uint64
	Source          Source
}

func (s Snapshot) IsZero() bool { return s.Version == 0 }

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.ReferenceList = listings.CloneEntries(s.ReferenceList)
	out.ComparisonAList = listings.CloneEntries(s.ComparisonAList)
	out.ComparisonBList = listings.CloneEntries(s.ComparisonBList)
	out.SpotOnlyList = listings.CloneEntries(s.SpotOnlyList)
	if s.Stats.Unavailable != nil {
		out.Stats.Unavailable = append([]string(nil), s.Stats.Unavailable...)
	}
	return out
}

// StatsPatch carries only the counters a writer wants to change.
type StatsPatch struct {
	ReferenceCount   *int
	ComparisonACount *int
	ComparisonBCount *int
	SpotOnlyCount    *int
	Unavailable      *[]string
}

func (p *StatsPatch) Empty() bool {
	return p == nil || (p.ReferenceCount == nil && p.ComparisonACount == nil &&
		p.ComparisonBCount == nil && p.SpotOnlyCount == nil && p.Unavailable == nil)
}

// Partial is a field-level update: nil fields keep their current value.
type Partial struct {
	ReferenceList   *[]listings.RankedEntry
	ComparisonAList *[]listings.RankedEntry
	ComparisonBList *[]listings.RankedEntry
	SpotOnlyList    *[]listings.RankedEntry
	Stats           *StatsPatch
	LastUpdated     *time.Time
	Source          Source
}

// HasLists reports whether at least one list or stats counter is present.
func (p Partial) HasLists() bool {
	return p.ReferenceList != nil || p.ComparisonAList != nil || p.ComparisonBList != nil ||
		p.SpotOnlyList != nil || !p.Stats.Empty()
}
