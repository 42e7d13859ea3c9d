package reconcile

import (
	"errors"
	"fmt"
)

var ErrNoReferenceData = errors.New("no reference data")

// NoReferenceDataError aborts a cycle: nothing usable came back from the
// reference exchange, so the installed snapshot must stay as it is.
type NoReferenceDataError struct {
	Received int // instruments returned by the collector
	Dropped  int // of those, filtered out (blacklist, missing fields, no price)
}

func (e *NoReferenceDataError) Error() string {
	return fmt.Sprintf("%v: %d instruments received, %d dropped", ErrNoReferenceData, e.Received, e.Dropped)
}

func (e *NoReferenceDataError) Is(target error) bool { return target == ErrNoReferenceData }
