package council

import (
	"fmt"
	"strings"
)

const maxDeckPromptChars = 24000

const optimistSystem = `You are the Optimist on a venture capital investment council.
You look for the upside: market size, team strength, traction, timing, and what could make this startup a breakout winner.
Respond with a single JSON object and nothing else:
{"agent":"optimist","summary":"...","strengths":["..."],"concerns":["..."],"score":0-100}`

const skepticSystem = `You are the Skeptic on a venture capital investment council.
You stress-test the pitch: competitive moats, unit economics, founder risk, regulatory exposure, and the claims that do not hold up.
Respond with a single JSON object and nothing else:
{"agent":"skeptic","summary":"...","strengths":["..."],"concerns":["..."],"score":0-100}`

const quantSystem = `You are the Quant on a venture capital investment council.
You focus on the numbers: revenue, growth rate, burn, margins, CAC/LTV, and whether the financial story is internally consistent.
Respond with a single JSON object and nothing else:
{"agent":"quant","summary":"...","strengths":["..."],"concerns":["..."],"score":0-100}`

const consensusSystem = `You are the Managing Partner synthesizing your investment council's reports into a final verdict.
Weigh the optimist, skeptic, and quant fairly. The final score must reflect the balance of their arguments, not an average.
Respond with a single JSON object and nothing else:
{"finalScore":0-100,"recommendation":"invest|monitor|pass","rationale":"...","keyRisks":["..."],"nextSteps":["..."]}`

func systemPrompt(role AgentRole) string {
	switch role {
	case RoleOptimist:
		return optimistSystem
	case RoleSkeptic:
		return skepticSystem
	case RoleQuant:
		return quantSystem
	}
	return ""
}

func agentUserPrompt(startupName, deckText, thesisText string) string {
	var b strings.Builder
	if thesisText != "" {
		b.WriteString("Investment thesis of the fund:\n")
		b.WriteString(thesisText)
		b.WriteString("\n\n")
	}
	if startupName != "" {
		fmt.Fprintf(&b, "Startup: %s\n\n", startupName)
	}
	b.WriteString("Pitch deck content:\n")
	b.WriteString(truncate(deckText, maxDeckPromptChars))
	return b.String()
}

func consensusUserPrompt(startupName string, reports []AgentReport, thesisText string) string {
	var b strings.Builder
	if thesisText != "" {
		b.WriteString("Investment thesis of the fund:\n")
		b.WriteString(thesisText)
		b.WriteString("\n\n")
	}
	if startupName != "" {
		fmt.Fprintf(&b, "Startup: %s\n\n", startupName)
	}
	b.WriteString("Council reports:\n")
	for _, report := range reports {
		fmt.Fprintf(&b, "\n[%s] score=%.0f\nsummary: %s\n", report.Agent, report.Score, report.Summary)
		for _, s := range report.Strengths {
			fmt.Fprintf(&b, "strength: %s\n", s)
		}
		for _, c := range report.Concerns {
			fmt.Fprintf(&b, "concern: %s\n", c)
		}
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
