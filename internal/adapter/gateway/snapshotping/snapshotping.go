package snapshotping

import (
	"context"
	"fmt"
	"time"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/snapshot"
)

type Reader interface {
	Read() snapshot.Snapshot
}

// Freshness reports degraded until the first snapshot is installed and when
// the installed one is older than MaxAge.
type Freshness struct {
	Store  Reader
	MaxAge time.Duration
	Now    func() time.Time
}

func (Freshness) Name() string { return "snapshot" }

func (f Freshness) Ping(context.Context) error {
	s := f.Store.Read()
	if s.IsZero() {
		return fmt.Errorf("no snapshot installed yet")
	}
	if f.MaxAge <= 0 {
		return nil
	}
	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	if age := now.Sub(s.LastUpdated); age > f.MaxAge {
		return fmt.Errorf("snapshot is %s old", age.Truncate(time.Second))
	}
	return nil
}
