package council

import "time"

// Analysis status mirrors the run lifecycle of the council pipeline
// for a single deck. The deck row remains the source of truth for the
// outward-facing lifecycle.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AgentRole identifies one of the council personas.
type AgentRole string

const (
	RoleOptimist AgentRole = "optimist"
	RoleSkeptic  AgentRole = "skeptic"
	RoleQuant    AgentRole = "quant"
)

// AgentReport is the structured verdict of a single council persona.
type AgentReport struct {
	Agent     string   `json:"agent"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
	Score     float64  `json:"score"`
}

// ConsensusReport is the synthesized verdict across all personas.
type ConsensusReport struct {
	FinalScore     float64  `json:"finalScore"`
	Recommendation string   `json:"recommendation"`
	Rationale      string   `json:"rationale"`
	KeyRisks       []string `json:"keyRisks,omitempty"`
	NextSteps      []string `json:"nextSteps,omitempty"`
}

// Analysis holds the full council output for a deck. At most one
// analysis row exists per deck; re-analysis overwrites it.
type Analysis struct {
	DeckID    string
	UserID    string
	Status    string
	Optimist  *AgentReport
	Skeptic   *AgentReport
	Quant     *AgentReport
	Consensus *ConsensusReport
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
