package store

import "errors"

var (
	// ErrNotInitialized is returned by every operation before Initialize or after Close.
	ErrNotInitialized = errors.New("store: not initialized")
	// ErrInvalidArgument wraps malformed ids, amounts, actions and item lists.
	ErrInvalidArgument = errors.New("store: invalid argument")
	// ErrNotFound is returned when an operation requires an existing record.
	ErrNotFound = errors.New("store: user not found")
)
