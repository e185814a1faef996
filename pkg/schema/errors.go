package schema

import "errors"

var (
	// ErrNotFound reports a schema document that does not exist at its source.
	ErrNotFound = errors.New("schema: document not found")
	// ErrTooLarge reports a payload above the configured size cap.
	ErrTooLarge = errors.New("schema: document too large")
)
