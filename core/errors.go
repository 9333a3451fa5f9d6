package core

import "errors"

var (
	// ErrStoreUnavailable is returned when the backing cache cannot be reached
	// or an operation against it times out.
	ErrStoreUnavailable = errors.New("thread store unavailable")

	// ErrDeserialization is returned when stored bytes are not a readable
	// thread envelope (corrupted, foreign or unsupported version).
	ErrDeserialization = errors.New("thread deserialization failed")

	// ErrEmptySessionID is returned when a store operation receives an empty
	// session id.
	ErrEmptySessionID = errors.New("empty session id")
)
