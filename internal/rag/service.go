package rag

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidQuery indicates a missing or blank search query.
var ErrInvalidQuery = errors.New("search query required")

// Service splits deck text into chunks and serves lexical retrieval
// over them.
type Service struct {
	Repo Repo
}

// IngestDeck chunks the deck's text and stores the pieces.
func (s *Service) IngestDeck(ctx context.Context, deckID, text string) error {
	pieces := SplitText(text)
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(pieces))
	now := time.Now().UTC()
	for i, content := range pieces {
		chunks = append(chunks, Chunk{
			ID:        uuid.NewString(),
			DeckID:    deckID,
			Index:     i,
			Content:   content,
			CreatedAt: now,
		})
	}
	return s.Repo.CreateBatch(ctx, chunks)
}

// Search returns chunks of the deck matching the query.
func (s *Service) Search(ctx context.Context, deckID, query string, limit int) ([]Chunk, error) {
	if len(query) == 0 {
		return nil, ErrInvalidQuery
	}
	return s.Repo.Search(ctx, deckID, query, limit)
}

// DeleteByDeck removes all chunks of a deck.
func (s *Service) DeleteByDeck(ctx context.Context, deckID string) error {
	return s.Repo.DeleteByDeck(ctx, deckID)
}
