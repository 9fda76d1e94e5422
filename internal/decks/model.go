package decks

import "time"

// Deck represents an uploaded pitch deck owned by a user.
type Deck struct {
	ID                string
	UserID            string
	Filename          string
	StartupName       string
	RawText           string
	ContentHash       string
	StorageKey        string
	MatchScore        *float64
	Status            Status
	FailureReason     string
	Notes             string
	AnalysisStartedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
