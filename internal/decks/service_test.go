package decks

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"venturesight-backend/internal/shared/telemetry"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   int
	deleted []string
}

func (f *fakeStore) Save(ctx context.Context, userId, fileName string, r io.Reader) (string, int64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	n, _ := io.Copy(io.Discard, r)
	return "objects/" + userId + "/" + fileName, n, "application/pdf", nil
}

func (f *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStore) Delete(ctx context.Context, storageKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, storageKey)
	return nil
}

func newTestService() (*Service, *MemoryRepo, *fakeStore) {
	repo := NewMemoryRepo()
	store := &fakeStore{}
	svc := &Service{
		Repo:  repo,
		Store: store,
		extractText: func(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
			return string(data), nil
		},
	}
	return svc, repo, store
}

func submitDeck(t *testing.T, svc *Service, userID, fileName, text string) Deck {
	t.Helper()
	deck, err := svc.Submit(context.Background(), userID, fileName, "application/pdf", []byte(text))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return deck
}

func TestSubmitRejectsDuplicateContent(t *testing.T) {
	svc, _, _ := newTestService()

	first := submitDeck(t, svc, "user-1", "deck.pdf", "Acme Robotics\nSeries A pitch")

	_, err := svc.Submit(context.Background(), "user-1", "copy.pdf", "application/pdf",
		[]byte("ACME   Robotics\n  series a PITCH"))
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.ExistingID != first.ID {
		t.Fatalf("ExistingID = %q, want %q", dup.ExistingID, first.ID)
	}
}

func TestSubmitScopedPerUser(t *testing.T) {
	svc, _, _ := newTestService()

	submitDeck(t, svc, "user-1", "deck.pdf", "same content")
	if _, err := svc.Submit(context.Background(), "user-2", "deck.pdf", "application/pdf", []byte("same content")); err != nil {
		t.Fatalf("other user's submission should not collide: %v", err)
	}
}

func TestSubmitAllowedAfterArchive(t *testing.T) {
	svc, _, _ := newTestService()

	first := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")
	if _, err := svc.Archive(context.Background(), "user-1", first.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if _, err := svc.Submit(context.Background(), "user-1", "deck.pdf", "application/pdf", []byte("Acme pitch")); err != nil {
		t.Fatalf("resubmit after archive: %v", err)
	}
}

func TestSubmitAllowedAfterFailure(t *testing.T) {
	svc, _, _ := newTestService()

	first := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")
	claimed, err := svc.StartAnalysis(context.Background(), "user-1", first.ID)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if err := svc.FailAnalysis(context.Background(), first.ID, *claimed.AnalysisStartedAt, "model error"); err != nil {
		t.Fatalf("FailAnalysis: %v", err)
	}

	if _, err := svc.Submit(context.Background(), "user-1", "deck.pdf", "application/pdf", []byte("Acme pitch")); err != nil {
		t.Fatalf("resubmit after failure: %v", err)
	}
}

func TestStartAnalysisSingleWinner(t *testing.T) {
	svc, _, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.StartAnalysis(context.Background(), "user-1", deck.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("winners = %d, want 1", wins)
	}
}

func TestStartAnalysisClearsPriorScore(t *testing.T) {
	svc, repo, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	claimed, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if err := svc.CompleteAnalysis(context.Background(), deck.ID, *claimed.AnalysisStartedAt, 81); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	if _, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("re-analysis: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusAnalyzing {
		t.Fatalf("status = %q, want analyzing", got.Status)
	}
	if got.MatchScore != nil {
		t.Fatalf("match score should be cleared during re-analysis, got %v", *got.MatchScore)
	}
}

func TestCompleteAnalysisClampsScore(t *testing.T) {
	svc, repo, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	claimed, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if err := svc.CompleteAnalysis(context.Background(), deck.ID, *claimed.AnalysisStartedAt, 140); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), "user-1", deck.ID)
	if got.MatchScore == nil || *got.MatchScore != 100 {
		t.Fatalf("score not clamped: %v", got.MatchScore)
	}
}

func TestCompleteAnalysisRequiresInFlight(t *testing.T) {
	svc, _, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	err := svc.CompleteAnalysis(context.Background(), deck.ID, time.Now().UTC(), 50)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteAnalysisRejectsSupersededClaim(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.StaleAfter = 15 * time.Minute

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")
	claimA, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("StartAnalysis claim A: %v", err)
	}

	// The sweeper reaps claim A, then a fresh run claims the deck.
	svc.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := svc.ReapStale(context.Background()); err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	claimB, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("StartAnalysis claim B: %v", err)
	}

	// Claim A's late callback must lose the CAS and leave claim B's run
	// untouched.
	err = svc.CompleteAnalysis(context.Background(), deck.ID, *claimA.AnalysisStartedAt, 90)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale completion: expected ErrInvalidTransition, got %v", err)
	}
	got, _ := repo.GetByID(context.Background(), "user-1", deck.ID)
	if got.Status != StatusAnalyzing {
		t.Fatalf("status = %q, want analyzing", got.Status)
	}
	if got.MatchScore != nil {
		t.Fatalf("stale score written: %v", *got.MatchScore)
	}

	err = svc.FailAnalysis(context.Background(), deck.ID, *claimA.AnalysisStartedAt, "late failure")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stale failure: expected ErrInvalidTransition, got %v", err)
	}

	if err := svc.CompleteAnalysis(context.Background(), deck.ID, *claimB.AnalysisStartedAt, 70); err != nil {
		t.Fatalf("claim B completion: %v", err)
	}
	got, _ = repo.GetByID(context.Background(), "user-1", deck.ID)
	if got.Status != StatusAnalyzed || got.MatchScore == nil || *got.MatchScore != 70 {
		t.Fatalf("claim B outcome lost: %+v", got)
	}
}

type fakeAnalyses struct {
	mu      sync.Mutex
	failed  map[string]string
	deleted []string
}

func (f *fakeAnalyses) DeleteByDeck(ctx context.Context, deckID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, deckID)
	return nil
}

func (f *fakeAnalyses) FailRunning(ctx context.Context, deckID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	f.failed[deckID] = reason
	return nil
}

func TestReapStaleFailsStoredAnalysis(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.StaleAfter = 15 * time.Minute
	analyses := &fakeAnalyses{}
	svc.Analyses = analyses

	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")
	past := time.Now().UTC().Add(-time.Hour)
	if err := repo.MarkAnalyzing(context.Background(), deck.ID, past); err != nil {
		t.Fatalf("MarkAnalyzing: %v", err)
	}

	ids, err := svc.ReapStale(context.Background())
	if err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("reaped = %v", ids)
	}
	if reason := analyses.failed[deck.ID]; reason != "analysis timed out" {
		t.Fatalf("analysis row not failed with reap reason: %q", reason)
	}
}

func TestArchiveRejectedWhileAnalyzing(t *testing.T) {
	svc, _, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	if _, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if _, err := svc.Archive(context.Background(), "user-1", deck.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestDeleteRemovesStoredObject(t *testing.T) {
	svc, _, store := newTestService()
	deck := submitDeck(t, svc, "user-1", "deck.pdf", "Acme pitch")

	if err := svc.Delete(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != deck.StorageKey {
		t.Fatalf("stored object not deleted: %v", store.deleted)
	}
	if _, err := svc.Get(context.Background(), "user-1", deck.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReapStaleFailsOnlyOverdueDecks(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.StaleAfter = 15 * time.Minute

	stale := submitDeck(t, svc, "user-1", "stale.pdf", "stale pitch")
	fresh := submitDeck(t, svc, "user-1", "fresh.pdf", "fresh pitch")

	past := time.Now().UTC().Add(-time.Hour)
	if err := repo.MarkAnalyzing(context.Background(), stale.ID, past); err != nil {
		t.Fatalf("MarkAnalyzing stale: %v", err)
	}
	if err := repo.MarkAnalyzing(context.Background(), fresh.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkAnalyzing fresh: %v", err)
	}

	ids, err := svc.ReapStale(context.Background())
	if err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("reaped = %v, want [%s]", ids, stale.ID)
	}

	got, _ := repo.GetByID(context.Background(), "user-1", stale.ID)
	if got.Status != StatusFailed || got.FailureReason == "" {
		t.Fatalf("stale deck not failed: %+v", got)
	}
	got, _ = repo.GetByID(context.Background(), "user-1", fresh.ID)
	if got.Status != StatusAnalyzing {
		t.Fatalf("fresh deck should stay analyzing, got %q", got.Status)
	}
}

func TestListHidesArchivedByDefault(t *testing.T) {
	svc, _, _ := newTestService()

	kept := submitDeck(t, svc, "user-1", "a.pdf", "alpha pitch")
	archived := submitDeck(t, svc, "user-1", "b.pdf", "beta pitch")
	if _, err := svc.Archive(context.Background(), "user-1", archived.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	list, err := svc.List(context.Background(), "user-1", "", 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != kept.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	list, err = svc.List(context.Background(), "user-1", StatusArchived, 50, 0)
	if err != nil {
		t.Fatalf("List archived: %v", err)
	}
	if len(list) != 1 || list[0].ID != archived.ID {
		t.Fatalf("archived filter: %+v", list)
	}
}

func TestStartAnalysisLogsTargetStatusOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(nil) })

	svc, _, _ := newTestService()
	deck := submitDeck(t, svc, "user-1", "acme.pdf", "acme pitch")

	claimed, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}
	if err := svc.FailAnalysis(context.Background(), deck.ID, *claimed.AnalysisStartedAt, "model overloaded"); err != nil {
		t.Fatalf("FailAnalysis: %v", err)
	}
	// Re-claim from failed: the claim log must not render the status
	// read before the conditional update.
	if _, err := svc.StartAnalysis(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("second StartAnalysis: %v", err)
	}

	var transitions []string
	for _, entry := range logs.All() {
		if entry.Message != "deck.status" {
			continue
		}
		if v, ok := entry.ContextMap()["statusTransition"].(string); ok {
			transitions = append(transitions, v)
		}
	}
	want := []string{"-> analyzing", "analyzing -> failed", "-> analyzing"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i, transition := range transitions {
		if transition != want[i] {
			t.Fatalf("transition[%d] = %q, want %q", i, transition, want[i])
		}
	}
}
