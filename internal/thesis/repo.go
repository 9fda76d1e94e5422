package thesis

import (
	"context"
	"errors"
)

// ErrNotFound indicates the user has not configured a thesis yet.
var ErrNotFound = errors.New("thesis not found")

// Repo persists investment theses, one row per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Thesis, error)
	Upsert(ctx context.Context, t Thesis) error
}
