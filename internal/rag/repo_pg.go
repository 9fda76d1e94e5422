package rag

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres. Search uses ILIKE; lexical
// matching is good enough for per-deck retrieval at this scale.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) CreateBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		placeholders []string
		args         []any
	)
	for i, chunk := range chunks {
		base := i * 4
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, chunk.ID, chunk.DeckID, chunk.Index, chunk.Content)
	}

	query := `INSERT INTO deck_chunks (id, deck_id, chunk_index, content) VALUES ` + strings.Join(placeholders, ", ")
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

func (r *PGRepo) Search(ctx context.Context, deckID, query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = 5
	}

	const sqlQuery = `
SELECT id, deck_id, chunk_index, content, created_at
FROM deck_chunks
WHERE deck_id = $1 AND content ILIKE $2
ORDER BY chunk_index
LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, sqlQuery, deckID, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DeckID, &chunk.Index, &chunk.Content, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *PGRepo) DeleteByDeck(ctx context.Context, deckID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM deck_chunks WHERE deck_id = $1`, deckID)
	return err
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

var _ Repo = (*PGRepo)(nil)
