package assistant

import "errors"

var (
	// ErrNotFound indicates an unknown conversation id for the
	// requesting user.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidInput indicates missing or malformed chat fields.
	ErrInvalidInput = errors.New("invalid input")
)
