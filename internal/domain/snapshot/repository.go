package snapshot

// Store owns the live snapshot. Implementations must never hold their lock
// across I/O and must hand out copies only.
type Store interface {
	Read() Snapshot
	Replace(s Snapshot) Snapshot
	MergeFields(p Partial) Snapshot
}
