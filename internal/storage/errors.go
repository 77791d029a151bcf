package storage

import "errors"

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates the caller passed a nil or unusable value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateKey indicates a record with the same key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)
