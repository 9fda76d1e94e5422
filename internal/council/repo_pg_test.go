package council

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertStoresReportsAsJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	analysis := Analysis{
		DeckID: "deck-1",
		UserID: "user-1",
		Status: StatusCompleted,
		Optimist: &AgentReport{
			Agent:   "optimist",
			Summary: "big market",
			Score:   85,
		},
		Consensus: &ConsensusReport{
			FinalScore:     68,
			Recommendation: "monitor",
			Rationale:      "promising",
		},
	}

	mock.ExpectExec("INSERT INTO council_analyses").
		WithArgs(
			analysis.DeckID,
			analysis.UserID,
			analysis.Status,
			sqlmock.AnyArg(), // optimist
			nil,              // skeptic
			nil,              // quant
			sqlmock.AnyArg(), // consensus
			nil,              // error
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), analysis); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFailRunningOnlyTouchesRunningRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("status = 'running'").
		WithArgs("deck-1", "analysis timed out").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.FailRunning(context.Background(), "deck-1", "analysis timed out"); err != nil {
		t.Fatalf("FailRunning: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByDeckMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("FROM council_analyses").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"deck_id", "user_id", "status", "optimist", "skeptic", "quant", "consensus", "error", "created_at", "updated_at",
		}))

	_, err = repo.GetByDeck(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
