package health

import "context"

type Status string

const (
	StatusOK Status = "ok"
	// the process serves, but data may be stale or a dependency is down
	StatusDegraded Status = "degraded"
)

func (s Status) OK() bool { return s == StatusOK }

// Pinger is one readiness dependency: the snapshot itself, the journal DB.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}
