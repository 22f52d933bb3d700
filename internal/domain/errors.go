package domain

import "errors"

var (
	// ErrValidation marks input that fails domain validation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks an operation that lost to a concurrent writer.
	ErrConflict = errors.New("conflict")
)
