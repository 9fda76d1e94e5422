package thesis

import "time"

// Thesis captures the investment profile the council analyzes decks
// against. One thesis per user.
type Thesis struct {
	UserID        string
	FundName      string
	TargetSectors []string
	TargetStages  []string
	Geographies   []string
	CheckSizeUSD  int64
	Description   string
	UpdatedAt     time.Time
}
