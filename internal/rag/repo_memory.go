package rag

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repo used when no database is configured
// and in tests.
type MemoryRepo struct {
	mu     sync.Mutex
	chunks map[string][]Chunk
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{chunks: make(map[string][]Chunk)}
}

func (r *MemoryRepo) CreateBatch(ctx context.Context, chunks []Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.chunks[chunk.DeckID] = append(r.chunks[chunk.DeckID], chunk)
	}
	return nil
}

func (r *MemoryRepo) Search(ctx context.Context, deckID, query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(query)
	var matched []Chunk
	for _, chunk := range r.chunks[deckID] {
		if strings.Contains(strings.ToLower(chunk.Content), needle) {
			matched = append(matched, chunk)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Index < matched[j].Index })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) DeleteByDeck(ctx context.Context, deckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, deckID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
