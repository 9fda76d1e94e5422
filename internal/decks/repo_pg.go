package decks

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const deckColumns = `id, user_id, filename, startup_name, raw_text, content_hash, storage_key,
       match_score, status, failure_reason, notes, analysis_started_at, created_at, updated_at`

// Create inserts a new deck.
func (r *PGRepo) Create(ctx context.Context, deck Deck) error {
	const query = `
INSERT INTO pitch_decks (
    id, user_id, filename, startup_name, raw_text, content_hash, storage_key,
    match_score, status, failure_reason, notes, analysis_started_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, NULL, NULL, NULL, $9, $9)`

	var startupName sql.NullString
	if deck.StartupName != "" {
		startupName = sql.NullString{String: deck.StartupName, Valid: true}
	}
	var storageKey sql.NullString
	if deck.StorageKey != "" {
		storageKey = sql.NullString{String: deck.StorageKey, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query,
		deck.ID,
		deck.UserID,
		deck.Filename,
		startupName,
		deck.RawText,
		deck.ContentHash,
		storageKey,
		string(deck.Status),
		deck.CreatedAt,
	)
	return err
}

// GetByID fetches a deck by id for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, deckID string) (Deck, error) {
	query := `
SELECT ` + deckColumns + `
FROM pitch_decks
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, deckID))
}

// FindActiveByHash returns the non-archived, non-failed deck matching
// the user's content hash, if any.
func (r *PGRepo) FindActiveByHash(ctx context.Context, userID, contentHash string) (Deck, error) {
	query := `
SELECT ` + deckColumns + `
FROM pitch_decks
WHERE user_id = $1 AND content_hash = $2 AND status NOT IN ('archived', 'failed')
ORDER BY created_at DESC
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID, contentHash))
}

// ListByUser lists decks newest-first, optionally filtered by status.
// Archived decks are hidden unless requested explicitly.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, status Status, limit, offset int) ([]Deck, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		query := `
SELECT ` + deckColumns + `
FROM pitch_decks
WHERE user_id = $1 AND status = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`
		rows, err = r.DB.QueryContext(ctx, query, userID, string(status), limit, offset)
	} else {
		query := `
SELECT ` + deckColumns + `
FROM pitch_decks
WHERE user_id = $1 AND status <> 'archived'
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
		rows, err = r.DB.QueryContext(ctx, query, userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Deck
	for rows.Next() {
		deck, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, deck)
	}
	return out, rows.Err()
}

// MarkAnalyzing performs the compare-and-swap into analyzing. The WHERE
// clause is the concurrency guard: only one of any set of concurrent
// callers observes RowsAffected == 1.
func (r *PGRepo) MarkAnalyzing(ctx context.Context, deckID string, startedAt time.Time) error {
	const query = `
UPDATE pitch_decks
SET status = 'analyzing', match_score = NULL, failure_reason = NULL,
    analysis_started_at = $2, updated_at = now()
WHERE id = $1 AND status = ANY($3)`
	res, err := r.DB.ExecContext(ctx, query, deckID, startedAt, statusStrings(startableStatuses))
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, deckID)
}

// MarkAnalyzed completes an in-flight analysis. The analysis_started_at
// predicate pins the write to the claim that produced the score: a
// callback from a reaped or superseded run matches zero rows.
func (r *PGRepo) MarkAnalyzed(ctx context.Context, deckID string, claimedAt time.Time, score float64) error {
	const query = `
UPDATE pitch_decks
SET status = 'analyzed', match_score = $3, failure_reason = NULL, updated_at = now()
WHERE id = $1 AND status = 'analyzing' AND analysis_started_at = $2`
	res, err := r.DB.ExecContext(ctx, query, deckID, claimedAt, score)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, deckID)
}

// MarkFailed records a terminal pipeline failure for the given claim.
func (r *PGRepo) MarkFailed(ctx context.Context, deckID string, claimedAt time.Time, reason string) error {
	const query = `
UPDATE pitch_decks
SET status = 'failed', match_score = NULL, failure_reason = $3, updated_at = now()
WHERE id = $1 AND status = 'analyzing' AND analysis_started_at = $2`
	res, err := r.DB.ExecContext(ctx, query, deckID, claimedAt, reason)
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, deckID)
}

// MarkArchived archives a deck.
func (r *PGRepo) MarkArchived(ctx context.Context, deckID string) error {
	const query = `
UPDATE pitch_decks
SET status = 'archived', updated_at = now()
WHERE id = $1 AND status = ANY($2)`
	res, err := r.DB.ExecContext(ctx, query, deckID, statusStrings(archivableStatuses))
	if err != nil {
		return err
	}
	return r.checkTransition(ctx, res, deckID)
}

// UpdateNotes stores analyst notes on a deck.
func (r *PGRepo) UpdateNotes(ctx context.Context, userID, deckID, notes string) error {
	const query = `
UPDATE pitch_decks
SET notes = $3, updated_at = now()
WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, deckID, notes)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a deck. The analysis row and derived
// chunks go with it via ON DELETE CASCADE.
func (r *PGRepo) Delete(ctx context.Context, userID, deckID string) error {
	const query = `DELETE FROM pitch_decks WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, deckID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReapStale force-fails decks stuck in analyzing since before cutoff.
func (r *PGRepo) ReapStale(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	const query = `
UPDATE pitch_decks
SET status = 'failed', match_score = NULL, failure_reason = $2, updated_at = now()
WHERE status = 'analyzing' AND analysis_started_at < $1
RETURNING id`
	rows, err := r.DB.QueryContext(ctx, query, cutoff, reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// checkTransition distinguishes a lost CAS from a missing row.
func (r *PGRepo) checkTransition(ctx context.Context, res sql.Result, deckID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = r.DB.QueryRowContext(ctx, `SELECT status FROM pitch_decks WHERE id = $1`, deckID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Deck, error) {
	var deck Deck
	var startupName sql.NullString
	var storageKey sql.NullString
	var matchScore sql.NullFloat64
	var status string
	var failureReason sql.NullString
	var notes sql.NullString
	var startedAt sql.NullTime
	err := row.Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Filename,
		&startupName,
		&deck.RawText,
		&deck.ContentHash,
		&storageKey,
		&matchScore,
		&status,
		&failureReason,
		&notes,
		&startedAt,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deck{}, ErrNotFound
		}
		return Deck{}, err
	}
	deck.Status = Status(status)
	if startupName.Valid {
		deck.StartupName = startupName.String
	}
	if storageKey.Valid {
		deck.StorageKey = storageKey.String
	}
	if matchScore.Valid {
		score := matchScore.Float64
		deck.MatchScore = &score
	}
	if failureReason.Valid {
		deck.FailureReason = failureReason.String
	}
	if notes.Valid {
		deck.Notes = notes.String
	}
	if startedAt.Valid {
		deck.AnalysisStartedAt = &startedAt.Time
	}
	return deck, nil
}

var _ Repo = (*PGRepo)(nil)
