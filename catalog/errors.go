package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog API operations.
var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrRateLimited = errors.New("catalog: rate limited by server")
	ErrBadRequest  = errors.New("catalog: bad request")
	ErrServer      = errors.New("catalog: server error")
	ErrUnavailable = errors.New("catalog: circuit open")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // Operation: "search", "lookup"
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog %s [%q]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, query string, err error) error {
	return &Error{
		Op:    op,
		Query: query,
		Err:   err,
	}
}
