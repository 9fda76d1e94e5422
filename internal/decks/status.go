package decks

// Status is the lifecycle state of a deck.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusArchived  Status = "archived"
	StatusFailed    Status = "failed"
)

// startableStatuses are the states from which an analysis may be
// (re-)triggered. "analyzing" is deliberately absent: at most one
// pipeline run may be in flight per deck.
var startableStatuses = []Status{StatusPending, StatusAnalyzed, StatusFailed}

// archivableStatuses are the states from which a deck may be archived.
var archivableStatuses = []Status{StatusPending, StatusAnalyzed, StatusFailed}

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAnalyzing, StatusAnalyzed, StatusArchived, StatusFailed:
		return true
	}
	return false
}

// CanStartAnalysis reports whether an analysis may be triggered from s.
func (s Status) CanStartAnalysis() bool {
	return contains(startableStatuses, s)
}

// CanArchive reports whether a deck in state s may be archived.
func (s Status) CanArchive() bool {
	return contains(archivableStatuses, s)
}

// activeForDedup reports whether a deck in state s blocks resubmission
// of the same content hash. Archived and failed decks do not.
func (s Status) activeForDedup() bool {
	return s != StatusArchived && s != StatusFailed
}

func contains(set []Status, s Status) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func statusStrings(set []Status) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}
