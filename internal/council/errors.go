package council

import "errors"

// ErrNotFound indicates no analysis exists for the deck yet.
var ErrNotFound = errors.New("analysis not found")
