// Package service wraps the backend endpoints, one type per resource. Every
// method issues exactly one request; cache invalidation is the caller's job.
package service

import (
	"errors"
	"fmt"

	"github.com/mmynk/kotconnect/internal/api"
)

// ErrInvalidResponse means the backend answered 2xx with a body the client
// cannot use.
var ErrInvalidResponse = errors.New("invalid response from server")

// Input errors, detected before any request is sent.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingTitle    = errors.New("title is required")
	ErrMissingName     = errors.New("name is required")
	ErrMissingCode     = errors.New("dorm code is required")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrNoParticipants  = errors.New("select at least one participant")
	ErrInvalidTaskType = errors.New("unknown task type")
	ErrInvalidDate     = errors.New("date must look like 2025-03-14")
	ErrInvalidTime     = errors.New("time must look like 20:30")
)

// ValidationError is a client-side input error. Err is one of the input
// sentinels above, possibly wrapped.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// decode unmarshals a result into a new T.
func decode[T any](res *api.Result) (*T, error) {
	var v T
	if err := res.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &v, nil
}
