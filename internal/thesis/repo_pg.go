package thesis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres. The list fields are stored as
// JSONB.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Thesis, error) {
	const query = `
SELECT user_id, fund_name, target_sectors, target_stages, geographies, check_size_usd, description, updated_at
FROM vc_theses
WHERE user_id = $1`

	var t Thesis
	var fundName, description sql.NullString
	var sectors, stages, geos []byte
	var checkSize sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&t.UserID,
		&fundName,
		&sectors,
		&stages,
		&geos,
		&checkSize,
		&description,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Thesis{}, ErrNotFound
	}
	if err != nil {
		return Thesis{}, err
	}

	if fundName.Valid {
		t.FundName = fundName.String
	}
	if description.Valid {
		t.Description = description.String
	}
	if checkSize.Valid {
		t.CheckSizeUSD = checkSize.Int64
	}
	if t.TargetSectors, err = unmarshalList(sectors); err != nil {
		return Thesis{}, err
	}
	if t.TargetStages, err = unmarshalList(stages); err != nil {
		return Thesis{}, err
	}
	if t.Geographies, err = unmarshalList(geos); err != nil {
		return Thesis{}, err
	}
	return t, nil
}

func (r *PGRepo) Upsert(ctx context.Context, t Thesis) error {
	sectors, err := json.Marshal(t.TargetSectors)
	if err != nil {
		return err
	}
	stages, err := json.Marshal(t.TargetStages)
	if err != nil {
		return err
	}
	geos, err := json.Marshal(t.Geographies)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO vc_theses (user_id, fund_name, target_sectors, target_stages, geographies, check_size_usd, description, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (user_id) DO UPDATE SET
    fund_name      = EXCLUDED.fund_name,
    target_sectors = EXCLUDED.target_sectors,
    target_stages  = EXCLUDED.target_stages,
    geographies    = EXCLUDED.geographies,
    check_size_usd = EXCLUDED.check_size_usd,
    description    = EXCLUDED.description,
    updated_at     = now()`

	_, err = r.DB.ExecContext(ctx, query,
		t.UserID,
		t.FundName,
		sectors,
		stages,
		geos,
		t.CheckSizeUSD,
		t.Description,
	)
	return err
}

func unmarshalList(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

var _ Repo = (*PGRepo)(nil)
