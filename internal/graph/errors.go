package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("message not found")
	ErrCycle    = errors.New("reply chain contains a cycle")

	ErrMissingID        = errors.New("message id cannot be empty")
	ErrInvalidRole      = errors.New("invalid role")
	ErrMissingContent   = errors.New("content cannot be null")
	ErrMissingTimestamp = errors.New("timestamp cannot be empty")
)

// ValidationError is returned when a node is rejected on insertion or load.
type ValidationError struct {
	ID  string
	Err error
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("node %q: %v", e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
