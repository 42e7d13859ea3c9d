package common

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

type Kind string

const (
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindDecode  Kind = "decode"
	KindPayload Kind = "payload" // well-formed JSON, but the exchange reported failure
	KindBreaker Kind = "breaker"
)

// CollectorError — the source was unreachable or returned something unusable.
// Callers degrade it to an empty result for the cycle.
type CollectorError struct {
	Exchange string
	Op       string
	Kind     Kind
	Status   int
	Err      error
}

func (e *CollectorError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s http %d: %v", e.Exchange, e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Exchange, e.Op, e.Kind, e.Err)
}

func (e *CollectorError) Unwrap() error { return e.Err }

// Transient reports whether the same call may succeed next cycle without a
// change on our side (timeouts, 429, 5xx, open breaker).
func (e *CollectorError) Transient() bool {
	switch e.Kind {
	case KindBreaker:
		return true
	case KindStatus:
		return e.Status == http.StatusTooManyRequests || (e.Status >= 500 && e.Status <= 599)
	case KindNetwork:
		var ne net.Error
		if errors.As(e.Err, &ne) {
			return ne.Timeout()
		}
		return true
	}
	return false
}

func PayloadError(exchange, op string, err error) *CollectorError {
	return &CollectorError{Exchange: exchange, Op: op, Kind: KindPayload, Err: err}
}
