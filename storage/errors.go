package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a record with the same key already
	// exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConnection is returned when the backing store is unreachable.
	ErrConnection = errors.New("storage connection failed")
)
