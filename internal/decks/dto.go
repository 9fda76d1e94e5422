package decks

import "time"

// DeckResponse is the outward-facing representation of a pitch deck.
// MatchScore is set only once the deck has been analyzed.
type DeckResponse struct {
	DeckID        string     `json:"deckId"`
	FileName      string     `json:"fileName"`
	StartupName   string     `json:"startupName,omitempty"`
	Status        string     `json:"status"`
	MatchScore    *float64   `json:"matchScore,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	AnalysisStart *time.Time `json:"analysisStartedAt,omitempty"`
}

func toResponse(deck Deck) DeckResponse {
	return DeckResponse{
		DeckID:        deck.ID,
		FileName:      deck.Filename,
		StartupName:   deck.StartupName,
		Status:        string(deck.Status),
		MatchScore:    deck.MatchScore,
		FailureReason: deck.FailureReason,
		Notes:         deck.Notes,
		SubmittedAt:   deck.CreatedAt,
		UpdatedAt:     deck.UpdatedAt,
		AnalysisStart: deck.AnalysisStartedAt,
	}
}
