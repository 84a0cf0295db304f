package errors

import "errors"

var (
	// ErrNotFound marks a course (or other record) that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks input rejected before any lookup happens.
	ErrInvalidArgument = errors.New("invalid argument")
)
