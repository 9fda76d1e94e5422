package council

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres. Agent reports are stored as
// JSONB columns so re-analysis overwrites them atomically.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, analysis Analysis) error {
	optimist, err := marshalNullable(analysis.Optimist)
	if err != nil {
		return err
	}
	skeptic, err := marshalNullable(analysis.Skeptic)
	if err != nil {
		return err
	}
	quant, err := marshalNullable(analysis.Quant)
	if err != nil {
		return err
	}
	consensus, err := marshalNullable(analysis.Consensus)
	if err != nil {
		return err
	}

	var runError sql.NullString
	if analysis.Error != "" {
		runError = sql.NullString{String: analysis.Error, Valid: true}
	}

	const query = `
INSERT INTO council_analyses (deck_id, user_id, status, optimist, skeptic, quant, consensus, error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
ON CONFLICT (deck_id) DO UPDATE SET
    status     = EXCLUDED.status,
    optimist   = EXCLUDED.optimist,
    skeptic    = EXCLUDED.skeptic,
    quant      = EXCLUDED.quant,
    consensus  = EXCLUDED.consensus,
    error      = EXCLUDED.error,
    updated_at = now()`

	_, err = r.DB.ExecContext(ctx, query,
		analysis.DeckID,
		analysis.UserID,
		analysis.Status,
		optimist,
		skeptic,
		quant,
		consensus,
		runError,
	)
	return err
}

func (r *PGRepo) GetByDeck(ctx context.Context, deckID string) (Analysis, error) {
	const query = `
SELECT deck_id, user_id, status, optimist, skeptic, quant, consensus, error, created_at, updated_at
FROM council_analyses
WHERE deck_id = $1`

	var analysis Analysis
	var optimist, skeptic, quant, consensus []byte
	var runError sql.NullString
	err := r.DB.QueryRowContext(ctx, query, deckID).Scan(
		&analysis.DeckID,
		&analysis.UserID,
		&analysis.Status,
		&optimist,
		&skeptic,
		&quant,
		&consensus,
		&runError,
		&analysis.CreatedAt,
		&analysis.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}

	if analysis.Optimist, err = unmarshalReport(optimist); err != nil {
		return Analysis{}, err
	}
	if analysis.Skeptic, err = unmarshalReport(skeptic); err != nil {
		return Analysis{}, err
	}
	if analysis.Quant, err = unmarshalReport(quant); err != nil {
		return Analysis{}, err
	}
	if len(consensus) > 0 {
		var report ConsensusReport
		if err := json.Unmarshal(consensus, &report); err != nil {
			return Analysis{}, err
		}
		analysis.Consensus = &report
	}
	if runError.Valid {
		analysis.Error = runError.String
	}
	return analysis, nil
}

func (r *PGRepo) DeleteByDeck(ctx context.Context, deckID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM council_analyses WHERE deck_id = $1`, deckID)
	return err
}

func (r *PGRepo) FailRunning(ctx context.Context, deckID, reason string) error {
	const query = `
UPDATE council_analyses
SET status = 'failed', error = $2, updated_at = now()
WHERE deck_id = $1 AND status = 'running'`
	_, err := r.DB.ExecContext(ctx, query, deckID, reason)
	return err
}

func marshalNullable(v any) (any, error) {
	switch report := v.(type) {
	case *AgentReport:
		if report == nil {
			return nil, nil
		}
	case *ConsensusReport:
		if report == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func unmarshalReport(data []byte) (*AgentReport, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var report AgentReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

var _ Repo = (*PGRepo)(nil)
