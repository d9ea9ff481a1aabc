package mediafold

import "errors"

var (
	// ErrNotFound is returned when a key or directory does not exist
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when write credentials are rejected
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when the underlying store rejects a write
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyRequest is returned when a file action carries no sources
	ErrEmptyRequest = errors.New("empty request")
	// ErrPartialFailure is returned when a subset of a batch operation failed
	ErrPartialFailure = errors.New("partial failure")
	// ErrInvalidCapability is returned when a capability signature does not match
	ErrInvalidCapability = errors.New("invalid capability")
	// ErrExpiredCapability is returned when a capability signature matches but has expired
	ErrExpiredCapability = errors.New("expired capability")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
