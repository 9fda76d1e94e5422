package assistant

import (
	"fmt"
	"strings"
	"time"

	"venturesight-backend/internal/council"
)

const maxDeckContextChars = 8000

const associateSystem = `You are the AI Associate of a venture capital fund: a sharp junior analyst who answers questions about the fund's deal pipeline and pitch decks.
Be direct and quantitative. Ground every claim in the provided deck content, council analysis, or a tool result. Say so when you do not know.

You can call tools. To call one, reply with a single JSON object and nothing else:
{"tool":"<name>","args":{...}}
The tool result will be given to you in the next turn. When you have enough information, reply with your answer as plain text.

Available tools:
- calculate_tam: validate a claimed market size bottom-up. args: {"claimedTam":USD,"targetCustomers":N,"arpu":USD,"growthRate":0.15}
- estimate_sam_som: derive SAM and SOM from a TAM. args: {"tam":USD,"geographicPct":0-1,"segmentPct":0-1,"captureRate":0-1}
- benchmark_funding: compare a funding ask against stage benchmarks. args: {"fundingAsk":USD,"stage":"Seed","mrr":USD,"teamSize":N}
- grade_investment_readiness: grade a deck on 11 weighted criteria, each scored 1-10. args: {"scores":{"team":8,"problem":7,...},"stage":"Seed"}
  Criterion ids: team, problem, solution, market, traction, business_model, competition, go_to_market, financials, ask, storytelling.
- list_decks: list the user's pipeline. args: {"limit":10}
- get_pipeline_summary: summarize the pipeline with top-rated deals. args: {}
- get_deal_details: fetch the council analysis for a startup by name. args: {"startupName":"..."}`

func buildSystemPrompt(now time.Time, thesisText, deckContext string) string {
	var b strings.Builder
	b.WriteString(associateSystem)
	fmt.Fprintf(&b, "\n\nToday's date: %s", now.Format("January 2, 2006"))
	if thesisText != "" {
		b.WriteString("\n\nInvestment thesis of the fund:\n")
		b.WriteString(thesisText)
	}
	if deckContext != "" {
		b.WriteString("\n\n")
		b.WriteString(deckContext)
	}
	return b.String()
}

// formatAnalysisContext renders a council analysis as prompt context.
func formatAnalysisContext(analysis council.Analysis) string {
	var b strings.Builder
	b.WriteString("Council analysis:\n")
	if analysis.Consensus != nil {
		fmt.Fprintf(&b, "Overall score: %.0f/100\n", analysis.Consensus.FinalScore)
		fmt.Fprintf(&b, "Recommendation: %s\n", analysis.Consensus.Recommendation)
		if analysis.Consensus.Rationale != "" {
			fmt.Fprintf(&b, "Rationale: %s\n", analysis.Consensus.Rationale)
		}
		for _, risk := range analysis.Consensus.KeyRisks {
			fmt.Fprintf(&b, "Key risk: %s\n", risk)
		}
	}
	for _, report := range []*council.AgentReport{analysis.Optimist, analysis.Skeptic, analysis.Quant} {
		if report == nil {
			continue
		}
		fmt.Fprintf(&b, "[%s] score=%.0f: %s\n", report.Agent, report.Score, report.Summary)
	}
	return b.String()
}

func truncateContext(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
