package council

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"venturesight-backend/internal/decks"
	"venturesight-backend/internal/llm"
	"venturesight-backend/internal/shared/metrics"
	"venturesight-backend/internal/shared/telemetry"
)

// ThesisProvider supplies the fund's investment thesis as prompt
// context. An empty string means no thesis is configured.
type ThesisProvider interface {
	ProfileText(ctx context.Context, userID string) (string, error)
}

// Service runs the council pipeline for a deck.
type Service struct {
	Repo   Repo
	Decks  *decks.Service
	LLM    llm.Client
	Thesis ThesisProvider

	// RunTimeout bounds a full council run including the consensus
	// round. Zero means the default.
	RunTimeout time.Duration

	// sync forces Analyze to run the pipeline inline. Tests only.
	sync bool
}

const (
	defaultRunTimeout = 10 * time.Minute
	agentMaxTokens    = 2048
)

// Analyze claims the deck for analysis and kicks off the council
// pipeline in the background. The claim is atomic: a second call while
// a run is in flight gets decks.ErrInvalidTransition.
func (s *Service) Analyze(ctx context.Context, userID, deckID string) (decks.Deck, error) {
	if s.LLM == nil {
		return decks.Deck{}, llm.ErrNotConfigured
	}
	if _, placeholder := s.LLM.(llm.PlaceholderClient); placeholder {
		return decks.Deck{}, llm.ErrNotConfigured
	}

	deck, err := s.Decks.StartAnalysis(ctx, userID, deckID)
	if err != nil {
		return decks.Deck{}, err
	}

	if err := s.Repo.Upsert(ctx, Analysis{
		DeckID: deck.ID,
		UserID: userID,
		Status: StatusRunning,
	}); err != nil {
		telemetry.Error("council.upsert_failed", map[string]any{
			"deckId": deck.ID,
			"error":  err.Error(),
		})
	}

	if s.sync {
		s.run(ctx, deck)
	} else {
		go s.run(backgroundWithRequestID(ctx), deck)
	}
	return deck, nil
}

// Get returns the council analysis for a deck the user owns.
func (s *Service) Get(ctx context.Context, userID, deckID string) (Analysis, error) {
	if _, err := s.Decks.Get(ctx, userID, deckID); err != nil {
		return Analysis{}, err
	}
	return s.Repo.GetByDeck(ctx, deckID)
}

// DeleteByDeck removes the stored analysis for a deck.
func (s *Service) DeleteByDeck(ctx context.Context, deckID string) error {
	return s.Repo.DeleteByDeck(ctx, deckID)
}

func (s *Service) run(ctx context.Context, deck decks.Deck) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, deck, fmt.Errorf("panic: %v", r), nil)
		}
	}()

	timeout := s.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startedAt := time.Now().UTC()

	thesisText := ""
	if s.Thesis != nil {
		text, err := s.Thesis.ProfileText(ctx, deck.UserID)
		if err == nil {
			thesisText = text
		}
	}

	reports := make([]AgentReport, 3)
	roles := []AgentRole{RoleOptimist, RoleSkeptic, RoleQuant}

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		g.Go(func() error {
			report, err := s.runAgent(gctx, role, deck, thesisText)
			if err != nil {
				return fmt.Errorf("%s: %w", role, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(ctx, deck, err, &startedAt)
		return
	}

	consensus, err := s.runConsensus(ctx, deck, reports, thesisText)
	if err != nil {
		s.fail(ctx, deck, fmt.Errorf("consensus: %w", err), &startedAt)
		return
	}

	// The deck CAS decides whether this run still owns the outcome. A
	// lost CAS means the claim was reaped or superseded: its writer owns
	// the analysis row, so this run must not touch it.
	if err := s.Decks.CompleteAnalysis(ctx, deck.ID, claimedAt(deck), consensus.FinalScore); err != nil {
		if errors.Is(err, decks.ErrInvalidTransition) || errors.Is(err, decks.ErrNotFound) {
			telemetry.Info("council.stale_claim", map[string]any{
				"requestId": requestIDFromContext(ctx),
				"deckId":    deck.ID,
			})
			return
		}
		telemetry.Error("council.complete_failed", map[string]any{
			"deckId": deck.ID,
			"error":  err.Error(),
		})
		return
	}

	analysis := Analysis{
		DeckID:    deck.ID,
		UserID:    deck.UserID,
		Status:    StatusCompleted,
		Optimist:  &reports[0],
		Skeptic:   &reports[1],
		Quant:     &reports[2],
		Consensus: &consensus,
	}
	if err := s.Repo.Upsert(context.Background(), analysis); err != nil {
		telemetry.Error("council.upsert_failed", map[string]any{
			"deckId": deck.ID,
			"error":  err.Error(),
		})
		return
	}

	completedAt := time.Now().UTC()
	metrics.ObserveAnalysisDurationMs(float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Info("council.completed", map[string]any{
		"requestId":  requestIDFromContext(ctx),
		"deckId":     deck.ID,
		"userId":     deck.UserID,
		"finalScore": consensus.FinalScore,
		"durationMs": completedAt.Sub(startedAt).Milliseconds(),
	})
}

func (s *Service) runAgent(ctx context.Context, role AgentRole, deck decks.Deck, thesisText string) (AgentReport, error) {
	raw, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:    systemPrompt(role),
		User:      agentUserPrompt(deck.StartupName, deck.RawText, thesisText),
		MaxTokens: agentMaxTokens,
	})
	if err != nil {
		return AgentReport{}, err
	}

	report, err := parseAgentReport(raw)
	if err != nil {
		// One repair round: feed the malformed output back and ask for
		// valid JSON.
		raw, retryErr := s.LLM.Complete(ctx, llm.CompletionRequest{
			System:    systemPrompt(role),
			User:      "Your previous reply was not valid JSON. Reply again with only the JSON object.\n\nPrevious reply:\n" + raw,
			MaxTokens: agentMaxTokens,
		})
		if retryErr != nil {
			return AgentReport{}, retryErr
		}
		report, err = parseAgentReport(raw)
		if err != nil {
			return AgentReport{}, err
		}
	}

	report.Agent = string(role)
	return report, nil
}

func (s *Service) runConsensus(ctx context.Context, deck decks.Deck, reports []AgentReport, thesisText string) (ConsensusReport, error) {
	raw, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:    consensusSystem,
		User:      consensusUserPrompt(deck.StartupName, reports, thesisText),
		MaxTokens: agentMaxTokens,
	})
	if err != nil {
		return ConsensusReport{}, err
	}
	return parseConsensusReport(raw)
}

func (s *Service) fail(ctx context.Context, deck decks.Deck, runErr error, startedAt *time.Time) {
	reason := sanitizeError(runErr)

	if err := s.Decks.FailAnalysis(context.Background(), deck.ID, claimedAt(deck), reason); err != nil {
		if errors.Is(err, decks.ErrInvalidTransition) || errors.Is(err, decks.ErrNotFound) {
			telemetry.Info("council.stale_claim", map[string]any{
				"requestId": requestIDFromContext(ctx),
				"deckId":    deck.ID,
			})
			return
		}
		telemetry.Error("council.fail_update_failed", map[string]any{
			"deckId": deck.ID,
			"error":  err.Error(),
		})
	}
	if err := s.Repo.Upsert(context.Background(), Analysis{
		DeckID: deck.ID,
		UserID: deck.UserID,
		Status: StatusFailed,
		Error:  reason,
	}); err != nil {
		telemetry.Error("council.upsert_failed", map[string]any{
			"deckId": deck.ID,
			"error":  err.Error(),
		})
	}
	if startedAt != nil {
		completedAt := time.Now().UTC()
		metrics.ObserveAnalysisDurationMs(float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0)
	}
	telemetry.Info("council.failed", map[string]any{
		"requestId": requestIDFromContext(ctx),
		"deckId":    deck.ID,
		"userId":    deck.UserID,
		"reason":    reason,
	})
}

// claimedAt extracts the run identity stamped by StartAnalysis.
func claimedAt(deck decks.Deck) time.Time {
	if deck.AnalysisStartedAt == nil {
		return time.Time{}
	}
	return *deck.AnalysisStartedAt
}

func parseAgentReport(raw string) (AgentReport, error) {
	var report AgentReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return AgentReport{}, fmt.Errorf("agent output invalid: %w", err)
	}
	if report.Summary == "" {
		return AgentReport{}, errors.New("agent output invalid: missing summary")
	}
	report.Score = clampScore(report.Score)
	return report, nil
}

func parseConsensusReport(raw string) (ConsensusReport, error) {
	var report ConsensusReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return ConsensusReport{}, fmt.Errorf("consensus output invalid: %w", err)
	}
	report.FinalScore = clampScore(report.FinalScore)
	report.Recommendation = normalizeRecommendation(report.Recommendation)
	return report, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeRecommendation(rec string) string {
	switch strings.ToLower(strings.TrimSpace(rec)) {
	case "invest", "strong invest":
		return "invest"
	case "pass", "no":
		return "pass"
	default:
		return "monitor"
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
