package decks

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown deck id for the requesting user.
	ErrNotFound = errors.New("deck not found")

	// ErrInvalidTransition indicates the deck's current status does not
	// permit the requested transition, typically because a concurrent
	// request won the race.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidInput indicates missing or malformed submission fields.
	ErrInvalidInput = errors.New("invalid input")
)

// DuplicateError is returned when a submission's content hash matches
// an existing non-archived, non-failed deck of the same user.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate deck content, existing deck %s", e.ExistingID)
}
