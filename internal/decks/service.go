package decks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"venturesight-backend/internal/extract"
	"venturesight-backend/internal/shared/metrics"
	"venturesight-backend/internal/shared/storage/object"
	"venturesight-backend/internal/shared/telemetry"
	"venturesight-backend/internal/shared/util"
)

// ChunkIngester receives the raw text of a newly accepted deck and
// removes derived rows when the deck is deleted.
type ChunkIngester interface {
	IngestDeck(ctx context.Context, deckID, text string) error
	DeleteByDeck(ctx context.Context, deckID string) error
}

// AnalysisMirror keeps the stored analysis row aligned with the deck
// lifecycle: deletion removes it, and the sweeper fails any row whose
// run was reaped. Postgres cascades the delete; the in-memory stores
// need the explicit call.
type AnalysisMirror interface {
	DeleteByDeck(ctx context.Context, deckID string) error
	FailRunning(ctx context.Context, deckID, reason string) error
}

// Service contains business logic for pitch decks.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	Chunks   ChunkIngester
	Analyses AnalysisMirror

	// StaleAfter bounds how long a deck may sit in analyzing before
	// the sweeper force-fails it.
	StaleAfter time.Duration

	now         func() time.Time
	extractText func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)
}

const defaultStaleAfter = 15 * time.Minute

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Submit extracts text from an uploaded deck, rejects duplicates of an
// active deck with the same content, and records a new pending deck.
func (s *Service) Submit(ctx context.Context, userID, fileName, mimeType string, data []byte) (Deck, error) {
	if userID == "" {
		return Deck{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if fileName == "" {
		return Deck{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return Deck{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	extractFn := s.extractText
	if extractFn == nil {
		extractFn = extract.Text
	}
	text, err := extractFn(ctx, data, mimeType, fileName)
	if err != nil {
		return Deck{}, err
	}
	normalized := util.NormalizeText(text)
	if normalized == "" {
		return Deck{}, fmt.Errorf("%w: no extractable text", ErrInvalidInput)
	}
	contentHash := util.ContentHash(text)

	if existing, err := s.Repo.FindActiveByHash(ctx, userID, contentHash); err == nil {
		metrics.IncDuplicateSubmit()
		telemetry.Info("deck.duplicate", map[string]any{
			"userId":     userID,
			"existingId": existing.ID,
		})
		return Deck{}, &DuplicateError{ExistingID: existing.ID}
	} else if !errors.Is(err, ErrNotFound) {
		return Deck{}, err
	}

	storageKey, _, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return Deck{}, err
	}

	now := s.clock()
	deck := Deck{
		ID:          uuid.NewString(),
		UserID:      userID,
		Filename:    fileName,
		StartupName: extract.StartupName(text, fileName),
		RawText:     text,
		ContentHash: contentHash,
		StorageKey:  storageKey,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, deck); err != nil {
		return Deck{}, err
	}

	if s.Chunks != nil {
		if err := s.Chunks.IngestDeck(ctx, deck.ID, text); err != nil {
			telemetry.Error("deck.chunk_ingest_failed", map[string]any{
				"deckId": deck.ID,
				"error":  err.Error(),
			})
		}
	}

	return deck, nil
}

// Get returns a deck owned by the user.
func (s *Service) Get(ctx context.Context, userID, deckID string) (Deck, error) {
	if userID == "" || deckID == "" {
		return Deck{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, deckID)
}

// List returns the user's decks, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status Status, limit, offset int) ([]Deck, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.Repo.ListByUser(ctx, userID, status, limit, offset)
}

// StartAnalysis claims the deck for a new analysis run. Exactly one of
// any set of concurrent callers succeeds.
func (s *Service) StartAnalysis(ctx context.Context, userID, deckID string) (Deck, error) {
	deck, err := s.Repo.GetByID(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}

	startedAt := s.clock()
	if err := s.Repo.MarkAnalyzing(ctx, deck.ID, startedAt); err != nil {
		return Deck{}, err
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("deck.status", map[string]any{
		"deckId":           deck.ID,
		"statusTransition": "-> " + string(StatusAnalyzing),
	})

	deck.Status = StatusAnalyzing
	deck.MatchScore = nil
	deck.FailureReason = ""
	deck.AnalysisStartedAt = &startedAt
	return deck, nil
}

// CompleteAnalysis records the final score for the analysis run
// claimed at claimedAt. Scores are clamped to [0, 100]. A late
// callback from a reaped or superseded run gets ErrInvalidTransition.
func (s *Service) CompleteAnalysis(ctx context.Context, deckID string, claimedAt time.Time, score float64) error {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if err := s.Repo.MarkAnalyzed(ctx, deckID, claimedAt, score); err != nil {
		return err
	}
	metrics.IncAnalysisCompleted()
	telemetry.Info("deck.status", map[string]any{
		"deckId":           deckID,
		"statusTransition": "analyzing -> analyzed",
		"matchScore":       score,
	})
	return nil
}

// FailAnalysis records a terminal failure for the analysis run claimed
// at claimedAt.
func (s *Service) FailAnalysis(ctx context.Context, deckID string, claimedAt time.Time, reason string) error {
	if reason == "" {
		reason = "analysis failed"
	}
	if err := s.Repo.MarkFailed(ctx, deckID, claimedAt, reason); err != nil {
		return err
	}
	metrics.IncAnalysisFailed()
	telemetry.Info("deck.status", map[string]any{
		"deckId":           deckID,
		"statusTransition": "analyzing -> failed",
		"reason":           reason,
	})
	return nil
}

// Archive moves a settled deck out of the active set. Its content hash
// no longer blocks resubmission.
func (s *Service) Archive(ctx context.Context, userID, deckID string) (Deck, error) {
	deck, err := s.Repo.GetByID(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}
	if err := s.Repo.MarkArchived(ctx, deck.ID); err != nil {
		return Deck{}, err
	}
	telemetry.Info("deck.status", map[string]any{
		"deckId":           deck.ID,
		"statusTransition": "-> " + string(StatusArchived),
	})
	deck.Status = StatusArchived
	return deck, nil
}

// SaveNotes stores analyst notes on a deck.
func (s *Service) SaveNotes(ctx context.Context, userID, deckID, notes string) error {
	if userID == "" || deckID == "" {
		return ErrInvalidInput
	}
	return s.Repo.UpdateNotes(ctx, userID, deckID, notes)
}

// Delete permanently removes a deck along with its stored file,
// chunks, and analysis.
func (s *Service) Delete(ctx context.Context, userID, deckID string) error {
	deck, err := s.Repo.GetByID(ctx, userID, deckID)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, userID, deckID); err != nil {
		return err
	}

	if s.Chunks != nil {
		if err := s.Chunks.DeleteByDeck(ctx, deckID); err != nil {
			telemetry.Error("deck.chunk_delete_failed", map[string]any{
				"deckId": deckID,
				"error":  err.Error(),
			})
		}
	}
	if s.Analyses != nil {
		if err := s.Analyses.DeleteByDeck(ctx, deckID); err != nil {
			telemetry.Error("deck.analysis_delete_failed", map[string]any{
				"deckId": deckID,
				"error":  err.Error(),
			})
		}
	}
	if deck.StorageKey != "" {
		if err := s.Store.Delete(ctx, deck.StorageKey); err != nil {
			telemetry.Error("deck.object_delete_failed", map[string]any{
				"deckId": deckID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

// ReapStale force-fails decks stuck in analyzing longer than
// StaleAfter. It returns the ids of the decks it failed.
func (s *Service) ReapStale(ctx context.Context) ([]string, error) {
	staleAfter := s.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	cutoff := s.clock().Add(-staleAfter)

	ids, err := s.Repo.ReapStale(ctx, cutoff, "analysis timed out")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		metrics.IncAnalysisReaped()
		if s.Analyses != nil {
			if err := s.Analyses.FailRunning(ctx, id, "analysis timed out"); err != nil {
				telemetry.Error("deck.analysis_reap_failed", map[string]any{
					"deckId": id,
					"error":  err.Error(),
				})
			}
		}
	}
	if len(ids) > 0 {
		telemetry.Info("deck.reaped", map[string]any{
			"count":   len(ids),
			"deckIds": ids,
		})
	}
	return ids, nil
}
