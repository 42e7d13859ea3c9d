package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrAuth       = errors.New("unauthorized")
	ErrValidation = errors.New("invalid payload")
)

type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string        { return fmt.Sprintf("%v: %s", ErrAuth, e.Reason) }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
