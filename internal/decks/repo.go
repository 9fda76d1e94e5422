package decks

import (
	"context"
	"time"
)

// Repo defines persistence operations for decks. All status writes are
// conditional on the current status so concurrent callers cannot race
// each other into a double transition.
type Repo interface {
	Create(ctx context.Context, deck Deck) error
	GetByID(ctx context.Context, userID, deckID string) (Deck, error)
	FindActiveByHash(ctx context.Context, userID, contentHash string) (Deck, error)
	ListByUser(ctx context.Context, userID string, status Status, limit, offset int) ([]Deck, error)

	// MarkAnalyzing transitions pending/analyzed/failed -> analyzing and
	// clears any prior match score. Exactly one of any set of concurrent
	// callers succeeds; the rest get ErrInvalidTransition.
	MarkAnalyzing(ctx context.Context, deckID string, startedAt time.Time) error

	// MarkAnalyzed transitions analyzing -> analyzed and stores the
	// score. claimedAt identifies the run: a callback whose claim has
	// been reaped or superseded loses the CAS and gets
	// ErrInvalidTransition.
	MarkAnalyzed(ctx context.Context, deckID string, claimedAt time.Time, score float64) error

	// MarkFailed transitions analyzing -> failed for the run claimed at
	// claimedAt and records the reason.
	MarkFailed(ctx context.Context, deckID string, claimedAt time.Time, reason string) error

	// MarkArchived transitions pending/analyzed/failed -> archived.
	MarkArchived(ctx context.Context, deckID string) error

	UpdateNotes(ctx context.Context, userID, deckID, notes string) error
	Delete(ctx context.Context, userID, deckID string) error

	// ReapStale force-fails decks stuck in analyzing since before cutoff
	// and returns their ids.
	ReapStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error)
}
