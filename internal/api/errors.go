package api

import "errors"

var (
	// ErrNotFound is returned for any method/path pair no route matches.
	ErrNotFound = errors.New("api: not found")

	// ErrSerialization wraps a payload the formatter could not encode.
	ErrSerialization = errors.New("api: serialization failed")
)
