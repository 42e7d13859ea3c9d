package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindRefresh Kind = "refresh"
	KindPush    Kind = "push"
)

// Entry is one audit record of a write attempt against the snapshot.
type Entry struct {
	ID               uuid.UUID
	Kind             Kind
	OK               bool
	ReferenceCount   int
	ComparisonACount int
	ComparisonBCount int
	Error            string
	At               time.Time
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
