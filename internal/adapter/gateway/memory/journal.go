package memory

import (
	"context"
	"sync"

	"github.com/ugurumutorak-max/crypto-dashboard/internal/domain/journal"
)

// Journal is a fixed-size ring of the most recent write attempts. It is the
// default Recorder when no database is configured.
type Journal struct {
	mu   sync.Mutex
	buf  []journal.Entry
	next int
	full bool
}

var _ journal.Recorder = (*Journal)(nil)

func NewJournal(size int) *Journal {
	if size <= 0 {
		size = 100
	}
	return &Journal{buf: make([]journal.Entry, size)}
}

func (j *Journal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.buf[j.next] = e
	j.next = (j.next + 1) % len(j.buf)
	if j.next == 0 {
		j.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(_ context.Context, limit int) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := j.next
	if j.full {
		n = len(j.buf)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]journal.Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (j.next - i + len(j.buf)) % len(j.buf)
		out = append(out, j.buf[idx])
	}
	return out, nil
}
