package council

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured
// and in tests.
type MemoryRepo struct {
	mu       sync.Mutex
	analyses map[string]Analysis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{analyses: make(map[string]Analysis)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, analysis Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.analyses[analysis.DeckID]; ok {
		analysis.CreatedAt = existing.CreatedAt
	} else {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now
	r.analyses[analysis.DeckID] = analysis
	return nil
}

func (r *MemoryRepo) GetByDeck(ctx context.Context, deckID string) (Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[deckID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

func (r *MemoryRepo) DeleteByDeck(ctx context.Context, deckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.analyses, deckID)
	return nil
}

func (r *MemoryRepo) FailRunning(ctx context.Context, deckID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[deckID]
	if !ok || analysis.Status != StatusRunning {
		return nil
	}
	analysis.Status = StatusFailed
	analysis.Error = reason
	analysis.UpdatedAt = time.Now().UTC()
	r.analyses[deckID] = analysis
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
