package council

import "context"

// Repo persists council analyses, one row per deck.
type Repo interface {
	Upsert(ctx context.Context, analysis Analysis) error
	GetByDeck(ctx context.Context, deckID string) (Analysis, error)
	DeleteByDeck(ctx context.Context, deckID string) error

	// FailRunning marks a still-running analysis row as failed. Rows in
	// any other state are left alone; the sweeper uses this so a reaped
	// deck never keeps a running analysis row.
	FailRunning(ctx context.Context, deckID, reason string) error
}
