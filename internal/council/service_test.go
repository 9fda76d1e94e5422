package council

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/llm"
)

type stubStore struct{}

func (stubStore) Save(ctx context.Context, userId, fileName string, r io.Reader) (string, int64, string, error) {
	n, _ := io.Copy(io.Discard, r)
	return "objects/" + userId + "/" + fileName, n, "application/pdf", nil
}

func (stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (stubStore) Delete(ctx context.Context, storageKey string) error { return nil }

type stubLLM struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, req llm.CompletionRequest) (string, error)
}

func (s *stubLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.fn(call, req)
}

func respondByRole(call int, req llm.CompletionRequest) (string, error) {
	switch {
	case strings.Contains(req.System, "Optimist"):
		return `{"agent":"optimist","summary":"big market","strengths":["traction"],"score":85}`, nil
	case strings.Contains(req.System, "Skeptic"):
		return `{"agent":"skeptic","summary":"thin moat","concerns":["competition"],"score":40}`, nil
	case strings.Contains(req.System, "Quant"):
		return `{"agent":"quant","summary":"solid growth","score":70}`, nil
	case strings.Contains(req.System, "Managing Partner"):
		return "```json\n{\"finalScore\":68,\"recommendation\":\"Monitor\",\"rationale\":\"promising but unproven\",\"keyRisks\":[\"competition\"]}\n```", nil
	}
	return "", errors.New("unexpected prompt")
}

func newCouncilFixture(t *testing.T, fn func(call int, req llm.CompletionRequest) (string, error)) (*Service, *decks.Service, decks.Deck) {
	t.Helper()

	deckRepo := decks.NewMemoryRepo()
	deckSvc := &decks.Service{Repo: deckRepo, Store: stubStore{}}

	deck := decks.Deck{
		ID:          "deck-1",
		UserID:      "user-1",
		Filename:    "acme.pdf",
		StartupName: "Acme Robotics",
		RawText:     "Acme Robotics builds warehouse robots. ARR 2M, growing 15% MoM.",
		ContentHash: "hash-1",
		Status:      decks.StatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := deckRepo.Create(context.Background(), deck); err != nil {
		t.Fatalf("create deck: %v", err)
	}

	svc := &Service{
		Repo:  NewMemoryRepo(),
		Decks: deckSvc,
		LLM:   &stubLLM{fn: fn},
		sync:  true,
	}
	return svc, deckSvc, deck
}

func TestAnalyzeProducesConsensus(t *testing.T) {
	svc, deckSvc, deck := newCouncilFixture(t, respondByRole)

	claimed, err := svc.Analyze(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if claimed.Status != decks.StatusAnalyzing {
		t.Fatalf("claimed status = %q, want analyzing", claimed.Status)
	}

	got, err := deckSvc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get deck: %v", err)
	}
	if got.Status != decks.StatusAnalyzed {
		t.Fatalf("deck status = %q, want analyzed", got.Status)
	}
	if got.MatchScore == nil || *got.MatchScore != 68 {
		t.Fatalf("match score = %v, want 68", got.MatchScore)
	}

	analysis, err := svc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get analysis: %v", err)
	}
	if analysis.Status != StatusCompleted {
		t.Fatalf("analysis status = %q", analysis.Status)
	}
	if analysis.Optimist == nil || analysis.Skeptic == nil || analysis.Quant == nil {
		t.Fatalf("missing agent reports: %+v", analysis)
	}
	if analysis.Consensus == nil || analysis.Consensus.Recommendation != "monitor" {
		t.Fatalf("consensus = %+v", analysis.Consensus)
	}
}

func TestAnalyzeConflictWhileRunning(t *testing.T) {
	svc, deckSvc, deck := newCouncilFixture(t, respondByRole)

	if _, err := deckSvc.StartAnalysis(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("StartAnalysis: %v", err)
	}

	_, err := svc.Analyze(context.Background(), "user-1", deck.ID)
	if !errors.Is(err, decks.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestStaleRunDoesNotOverwriteNewClaim(t *testing.T) {
	deckRepo := decks.NewMemoryRepo()
	deckSvc := &decks.Service{Repo: deckRepo, Store: stubStore{}}

	deck := decks.Deck{
		ID:          "deck-1",
		UserID:      "user-1",
		Filename:    "acme.pdf",
		StartupName: "Acme Robotics",
		RawText:     "Acme Robotics builds warehouse robots.",
		ContentHash: "hash-1",
		Status:      decks.StatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := deckRepo.Create(context.Background(), deck); err != nil {
		t.Fatalf("create deck: %v", err)
	}

	// While the first run is between its consensus round and its
	// completion write, the sweeper reaps the deck and a second run
	// claims it. The first run's completion must lose.
	var second decks.Deck
	fn := func(call int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "Managing Partner") {
			if _, err := deckRepo.ReapStale(context.Background(), time.Now().UTC().Add(time.Minute), "analysis timed out"); err != nil {
				t.Errorf("ReapStale: %v", err)
			}
			claimed, err := deckSvc.StartAnalysis(context.Background(), "user-1", deck.ID)
			if err != nil {
				t.Errorf("StartAnalysis: %v", err)
			}
			second = claimed
		}
		return respondByRole(call, req)
	}

	svc := &Service{
		Repo:  NewMemoryRepo(),
		Decks: deckSvc,
		LLM:   &stubLLM{fn: fn},
		sync:  true,
	}

	if _, err := svc.Analyze(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got, err := deckSvc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get deck: %v", err)
	}
	if got.Status != decks.StatusAnalyzing {
		t.Fatalf("deck status = %q, want analyzing under the second claim", got.Status)
	}
	if got.MatchScore != nil {
		t.Fatalf("stale run wrote score %v", *got.MatchScore)
	}

	analysis, err := svc.Repo.GetByDeck(context.Background(), deck.ID)
	if err != nil {
		t.Fatalf("GetByDeck: %v", err)
	}
	if analysis.Status != StatusRunning {
		t.Fatalf("analysis status = %q, stale run must not settle it", analysis.Status)
	}

	// The second claim still completes normally.
	if second.AnalysisStartedAt == nil {
		t.Fatalf("second claim missing start stamp")
	}
	if err := deckSvc.CompleteAnalysis(context.Background(), deck.ID, *second.AnalysisStartedAt, 55); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}
	got, err = deckSvc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get deck: %v", err)
	}
	if got.Status != decks.StatusAnalyzed || got.MatchScore == nil || *got.MatchScore != 55 {
		t.Fatalf("deck after second completion = %q score %v", got.Status, got.MatchScore)
	}
}

func TestAnalyzeAgentErrorFailsDeck(t *testing.T) {
	svc, deckSvc, deck := newCouncilFixture(t, func(call int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "Skeptic") {
			return "", errors.New("model overloaded")
		}
		return respondByRole(call, req)
	})

	if _, err := svc.Analyze(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got, err := deckSvc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get deck: %v", err)
	}
	if got.Status != decks.StatusFailed {
		t.Fatalf("deck status = %q, want failed", got.Status)
	}
	if got.FailureReason == "" {
		t.Fatalf("expected failure reason")
	}

	analysis, err := svc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get analysis: %v", err)
	}
	if analysis.Status != StatusFailed || analysis.Error == "" {
		t.Fatalf("analysis = %+v", analysis)
	}
}

func TestAgentJSONRepairedOnce(t *testing.T) {
	var optimistCalls int
	var mu sync.Mutex

	svc, deckSvc, deck := newCouncilFixture(t, func(call int, req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.System, "Optimist") {
			mu.Lock()
			optimistCalls++
			n := optimistCalls
			mu.Unlock()
			if n == 1 {
				return "Sure! Here is my analysis: big market", nil
			}
		}
		return respondByRole(call, req)
	})

	if _, err := svc.Analyze(context.Background(), "user-1", deck.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got, err := deckSvc.Get(context.Background(), "user-1", deck.ID)
	if err != nil {
		t.Fatalf("Get deck: %v", err)
	}
	if got.Status != decks.StatusAnalyzed {
		t.Fatalf("deck status = %q, want analyzed after repair", got.Status)
	}
	if optimistCalls != 2 {
		t.Fatalf("optimist calls = %d, want 2", optimistCalls)
	}
}

func TestParseConsensusNormalizesRecommendation(t *testing.T) {
	report, err := parseConsensusReport(`{"finalScore":120,"recommendation":"STRONG INVEST","rationale":"x"}`)
	if err != nil {
		t.Fatalf("parseConsensusReport: %v", err)
	}
	if report.FinalScore != 100 {
		t.Fatalf("score not clamped: %v", report.FinalScore)
	}
	if report.Recommendation != "invest" {
		t.Fatalf("recommendation = %q", report.Recommendation)
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	if got := stripFences(in); got != `{"a":1}` {
		t.Fatalf("stripFences = %q", got)
	}
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("plain passthrough = %q", got)
	}
}
