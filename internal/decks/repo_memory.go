package decks

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured
// and in tests.
type MemoryRepo struct {
	mu    sync.Mutex
	decks map[string]Deck
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{decks: make(map[string]Deck)}
}

func (r *MemoryRepo) Create(ctx context.Context, deck Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[deck.ID] = deck
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, deckID string) (Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok || deck.UserID != userID {
		return Deck{}, ErrNotFound
	}
	return deck, nil
}

func (r *MemoryRepo) FindActiveByHash(ctx context.Context, userID, contentHash string) (Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *Deck
	for _, deck := range r.decks {
		if deck.UserID != userID || deck.ContentHash != contentHash {
			continue
		}
		if !deck.Status.activeForDedup() {
			continue
		}
		if found == nil || deck.CreatedAt.After(found.CreatedAt) {
			d := deck
			found = &d
		}
	}
	if found == nil {
		return Deck{}, ErrNotFound
	}
	return *found, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, status Status, limit, offset int) ([]Deck, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.Lock()
	var matched []Deck
	for _, deck := range r.decks {
		if deck.UserID != userID {
			continue
		}
		if status != "" {
			if deck.Status != status {
				continue
			}
		} else if deck.Status == StatusArchived {
			continue
		}
		matched = append(matched, deck)
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) MarkAnalyzing(ctx context.Context, deckID string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return ErrNotFound
	}
	if !deck.Status.CanStartAnalysis() {
		return ErrInvalidTransition
	}
	deck.Status = StatusAnalyzing
	deck.MatchScore = nil
	deck.FailureReason = ""
	deck.AnalysisStartedAt = &startedAt
	deck.UpdatedAt = time.Now()
	r.decks[deckID] = deck
	return nil
}

func (r *MemoryRepo) MarkAnalyzed(ctx context.Context, deckID string, claimedAt time.Time, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return ErrNotFound
	}
	if deck.Status != StatusAnalyzing || !claimMatches(deck, claimedAt) {
		return ErrInvalidTransition
	}
	deck.Status = StatusAnalyzed
	deck.MatchScore = &score
	deck.FailureReason = ""
	deck.UpdatedAt = time.Now()
	r.decks[deckID] = deck
	return nil
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, deckID string, claimedAt time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return ErrNotFound
	}
	if deck.Status != StatusAnalyzing || !claimMatches(deck, claimedAt) {
		return ErrInvalidTransition
	}
	deck.Status = StatusFailed
	deck.MatchScore = nil
	deck.FailureReason = reason
	deck.UpdatedAt = time.Now()
	r.decks[deckID] = deck
	return nil
}

func (r *MemoryRepo) MarkArchived(ctx context.Context, deckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok {
		return ErrNotFound
	}
	if !deck.Status.CanArchive() {
		return ErrInvalidTransition
	}
	deck.Status = StatusArchived
	deck.UpdatedAt = time.Now()
	r.decks[deckID] = deck
	return nil
}

func (r *MemoryRepo) UpdateNotes(ctx context.Context, userID, deckID, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok || deck.UserID != userID {
		return ErrNotFound
	}
	deck.Notes = notes
	deck.UpdatedAt = time.Now()
	r.decks[deckID] = deck
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, deckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.decks[deckID]
	if !ok || deck.UserID != userID {
		return ErrNotFound
	}
	delete(r.decks, deckID)
	return nil
}

func (r *MemoryRepo) ReapStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, deck := range r.decks {
		if deck.Status != StatusAnalyzing {
			continue
		}
		if deck.AnalysisStartedAt == nil || !deck.AnalysisStartedAt.Before(cutoff) {
			continue
		}
		deck.Status = StatusFailed
		deck.MatchScore = nil
		deck.FailureReason = reason
		deck.UpdatedAt = time.Now()
		r.decks[id] = deck
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func claimMatches(deck Deck, claimedAt time.Time) bool {
	return deck.AnalysisStartedAt != nil && deck.AnalysisStartedAt.Equal(claimedAt)
}

var _ Repo = (*MemoryRepo)(nil)
