package interfaces

import "errors"

var (
	// ErrKeyNotFound is returned when a key/value lookup finds no entry.
	ErrKeyNotFound = errors.New("key not found")

	// ErrStateNotFound is returned when no state exists for an identifier.
	ErrStateNotFound = errors.New("state not found")
)
