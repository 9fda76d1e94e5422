package rag

import (
	"context"
	"time"
)

// Chunk is one retrievable slice of a deck's text.
type Chunk struct {
	ID        string
	DeckID    string
	Index     int
	Content   string
	CreatedAt time.Time
}

// Repo persists deck chunks.
type Repo interface {
	CreateBatch(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, deckID, query string, limit int) ([]Chunk, error)
	DeleteByDeck(ctx context.Context, deckID string) error
}
