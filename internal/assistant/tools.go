package assistant

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// TAMInput carries the bottom-up market sizing parameters.
type TAMInput struct {
	ClaimedTAM      float64 `json:"claimedTam"`
	TargetCustomers float64 `json:"targetCustomers"`
	ARPU            float64 `json:"arpu"`
	GrowthRate      float64 `json:"growthRate"`
}

// TAMResult validates a claimed TAM against a bottom-up calculation.
type TAMResult struct {
	ClaimedTAM    float64 `json:"claimedTam"`
	CalculatedTAM float64 `json:"calculatedTam"`
	Ratio         float64 `json:"ratio"`
	Validation    string  `json:"validation"`
	Confidence    string  `json:"confidence"`
	Note          string  `json:"note"`
	Projected5Y   float64 `json:"projected5yTam"`
}

// ValidateTAM cross-checks a claimed market size against customers
// times ARPU and projects the bottom-up figure five years out.
func ValidateTAM(in TAMInput) TAMResult {
	calculated := in.TargetCustomers * in.ARPU

	ratio := 0.0
	if calculated > 0 {
		ratio = in.ClaimedTAM / calculated
	}

	var validation, confidence, note string
	switch {
	case ratio < 0.5:
		validation = "UNDERSTATED"
		confidence = "low"
		note = "Claimed TAM is significantly lower than bottom-up calculation. May be conservative."
	case ratio > 2.0:
		validation = "OVERSTATED"
		confidence = "low"
		note = "Claimed TAM appears inflated. Request supporting data sources."
	case ratio > 1.5:
		validation = "AGGRESSIVE"
		confidence = "medium"
		note = "TAM is on the higher end. Verify assumptions."
	default:
		validation = "REASONABLE"
		confidence = "high"
		note = "Claimed TAM aligns with bottom-up calculation."
	}

	projected := calculated
	if in.GrowthRate > 0 {
		projected = calculated * math.Pow(1+in.GrowthRate, 5)
	}

	return TAMResult{
		ClaimedTAM:    in.ClaimedTAM,
		CalculatedTAM: calculated,
		Ratio:         math.Round(ratio*100) / 100,
		Validation:    validation,
		Confidence:    confidence,
		Note:          note,
		Projected5Y:   math.Round(projected),
	}
}

// SAMSOMInput narrows a TAM by geography, segment, and realistic
// capture rate.
type SAMSOMInput struct {
	TAM           float64 `json:"tam"`
	GeographicPct float64 `json:"geographicPct"`
	SegmentPct    float64 `json:"segmentPct"`
	CaptureRate   float64 `json:"captureRate"`
}

// SAMSOMResult breaks a TAM into serviceable and obtainable markets.
type SAMSOMResult struct {
	TAM           float64 `json:"tam"`
	SAM           float64 `json:"sam"`
	SOM           float64 `json:"som"`
	SAMRatio      float64 `json:"samRatio"`
	CaptureRate   float64 `json:"captureRate"`
	SAMAssessment string  `json:"samAssessment"`
	SOMAssessment string  `json:"somAssessment"`
}

// EstimateSAMSOM derives SAM and SOM from a TAM. Unset fractions
// default to the whole market and a one percent capture.
func EstimateSAMSOM(in SAMSOMInput) SAMSOMResult {
	if in.GeographicPct <= 0 {
		in.GeographicPct = 1.0
	}
	if in.SegmentPct <= 0 {
		in.SegmentPct = 1.0
	}
	if in.CaptureRate <= 0 {
		in.CaptureRate = 0.01
	}

	sam := in.TAM * in.GeographicPct * in.SegmentPct
	som := sam * in.CaptureRate

	samAssessment := "Review needed"
	if in.TAM > 0 {
		if ratio := sam / in.TAM; ratio >= 0.1 && ratio <= 0.5 {
			samAssessment = "Reasonable"
		}
	}
	somAssessment := "Ambitious"
	if som < sam*0.1 {
		somAssessment = "Achievable"
	}

	return SAMSOMResult{
		TAM:           in.TAM,
		SAM:           math.Round(sam),
		SOM:           math.Round(som),
		SAMRatio:      math.Round(in.GeographicPct*in.SegmentPct*100) / 100,
		CaptureRate:   in.CaptureRate,
		SAMAssessment: samAssessment,
		SOMAssessment: somAssessment,
	}
}

// stageBenchmark captures typical round sizes per funding stage.
type stageBenchmark struct {
	Stage    string
	Min      float64
	Max      float64
	Median   float64
	Expected string
}

var fundingBenchmarks = []stageBenchmark{
	{"Pre-Seed", 100_000, 500_000, 250_000, "Pre-revenue or < $10K MRR, 1-3 founders, MVP or prototype"},
	{"Seed", 500_000, 3_000_000, 1_500_000, "$10K-$50K MRR or strong engagement, 3-10 people, launched product"},
	{"Series A", 5_000_000, 15_000_000, 10_000_000, "$100K+ MRR or $1M+ ARR, 15-30 people, product-market fit"},
	{"Series B", 15_000_000, 50_000_000, 30_000_000, "$3M+ ARR with growth, 50+ people, scalable go-to-market"},
}

// FundingInput carries a funding ask and its supporting metrics.
type FundingInput struct {
	FundingAsk float64 `json:"fundingAsk"`
	Stage      string  `json:"stage"`
	MRR        float64 `json:"mrr"`
	TeamSize   int     `json:"teamSize"`
}

// FundingResult compares an ask against stage benchmarks.
type FundingResult struct {
	FundingAsk           float64    `json:"fundingAsk"`
	Stage                string     `json:"stage"`
	TypicalRange         [2]float64 `json:"typicalRange"`
	Median               float64    `json:"median"`
	ExpectedMetrics      string     `json:"expectedMetrics"`
	Assessment           string     `json:"assessment"`
	Note                 string     `json:"note"`
	ImpliedValuationLow  float64    `json:"impliedValuationLow"`
	ImpliedValuationHigh float64    `json:"impliedValuationHigh"`
	RevenueAnalysis      string     `json:"revenueAnalysis,omitempty"`
	TeamAnalysis         string     `json:"teamAnalysis,omitempty"`
	Recommendation       string     `json:"recommendation"`
}

// BenchmarkFunding grades a funding ask against the stage's typical
// range and derives the valuation implied by 15-25% dilution.
func BenchmarkFunding(in FundingInput) FundingResult {
	benchmark := matchStage(in.Stage)

	var assessment, note string
	switch {
	case in.FundingAsk < benchmark.Min:
		assessment = "BELOW_RANGE"
		note = "Funding ask is below typical range. May indicate conservative approach or early stage."
	case in.FundingAsk > benchmark.Max:
		assessment = "ABOVE_RANGE"
		note = "Funding ask exceeds typical range. Requires strong metrics justification."
	case in.FundingAsk > benchmark.Median*1.3:
		assessment = "HIGH_END"
		note = "Ask is on the higher end of range. Verify metrics support valuation."
	default:
		assessment = "WITHIN_RANGE"
		note = "Funding ask aligns with stage benchmarks."
	}

	valuationLow := in.FundingAsk / 0.25
	valuationHigh := in.FundingAsk / 0.15

	revenueAnalysis := ""
	if in.MRR > 0 {
		arr := in.MRR * 12
		multiple := valuationLow / arr
		switch {
		case multiple < 10:
			revenueAnalysis = fmt.Sprintf("Implied %.1fx ARR multiple, reasonable", multiple)
		case multiple < 30:
			revenueAnalysis = fmt.Sprintf("Implied %.1fx ARR multiple, growth-stage pricing", multiple)
		default:
			revenueAnalysis = fmt.Sprintf("Implied %.1fx ARR multiple, requires strong growth justification", multiple)
		}
	}

	teamAnalysis := ""
	if in.TeamSize > 0 {
		teamAnalysis = fmt.Sprintf("Team of %d vs expected %q for %s", in.TeamSize, benchmark.Expected, benchmark.Stage)
	}

	return FundingResult{
		FundingAsk:           in.FundingAsk,
		Stage:                benchmark.Stage,
		TypicalRange:         [2]float64{benchmark.Min, benchmark.Max},
		Median:               benchmark.Median,
		ExpectedMetrics:      benchmark.Expected,
		Assessment:           assessment,
		Note:                 note,
		ImpliedValuationLow:  valuationLow,
		ImpliedValuationHigh: valuationHigh,
		RevenueAnalysis:      revenueAnalysis,
		TeamAnalysis:         teamAnalysis,
		Recommendation:       fundingRecommendation(assessment, in.MRR, benchmark.Stage),
	}
}

func matchStage(stage string) stageBenchmark {
	lowered := strings.ToLower(strings.TrimSpace(stage))
	for _, b := range fundingBenchmarks {
		if strings.Contains(lowered, strings.ToLower(b.Stage)) ||
			strings.Contains(lowered, strings.ToLower(strings.ReplaceAll(b.Stage, "-", " "))) {
			return b
		}
	}
	// Default to seed when the stage is unrecognized.
	return fundingBenchmarks[1]
}

func fundingRecommendation(assessment string, mrr float64, stage string) string {
	switch {
	case assessment == "ABOVE_RANGE":
		return fmt.Sprintf("Request detailed breakdown of use of funds and milestone plan for %s round.", stage)
	case assessment == "BELOW_RANGE":
		return "Understand if conservative ask is strategic or indicates limited ambition."
	case mrr > 0:
		return "Funding ask appears reasonable for stage. Validate unit economics and growth trajectory."
	default:
		return "Evaluate pre-revenue metrics: engagement, waitlist, or pilot contracts."
	}
}

// readinessCriterion is one weighted axis of the investment grade.
type readinessCriterion struct {
	ID          string
	Name        string
	Weight      float64
	Description string
}

var readinessCriteria = []readinessCriterion{
	{"team", "Founding Team", 0.15, "Relevant experience, complementary skills, founder-market fit"},
	{"problem", "Problem Definition", 0.10, "Clear, significant pain point with evidence of market need"},
	{"solution", "Solution & Product", 0.10, "Innovative approach, clear value proposition, product evidence"},
	{"market", "Market Opportunity", 0.12, "Large TAM, growing market, timing is right"},
	{"traction", "Traction & Metrics", 0.15, "Revenue, users, engagement, growth rate, key milestones"},
	{"business_model", "Business Model", 0.08, "Clear monetization, unit economics, path to profitability"},
	{"competition", "Competitive Landscape", 0.08, "Awareness of competition, differentiation, defensible moat"},
	{"go_to_market", "Go-to-Market Strategy", 0.07, "Customer acquisition strategy, channels, early wins"},
	{"financials", "Financial Projections", 0.05, "Realistic projections, key assumptions, use of funds"},
	{"ask", "The Ask", 0.05, "Clear funding request, reasonable valuation, milestone plan"},
	{"storytelling", "Pitch Quality", 0.05, "Compelling narrative, clear structure, professional design"},
}

// CriterionScore is the graded result of one criterion.
type CriterionScore struct {
	Criterion  string  `json:"criterion"`
	Score      int     `json:"score"`
	Weight     float64 `json:"weight"`
	Assessment string  `json:"assessment"`
}

// ReadinessResult is the weighted investment-readiness grade.
type ReadinessResult struct {
	OverallScore      float64          `json:"overallScore"`
	Grade             string           `json:"grade"`
	Recommendation    string           `json:"recommendation"`
	Summary           string           `json:"summary"`
	Stage             string           `json:"stage"`
	CriteriaEvaluated int              `json:"criteriaEvaluated"`
	MissingCriteria   []string         `json:"missingCriteria,omitempty"`
	Breakdown         []CriterionScore `json:"breakdown"`
	StrongAreas       []string         `json:"strongAreas,omitempty"`
	WeakAreas         []string         `json:"weakAreas,omitempty"`
	TopPriorities     []string         `json:"topPriorities,omitempty"`
}

// GradeReadiness grades per-criterion scores (1-10) into a weighted
// overall score and letter grade. Criteria without a score are skipped
// and reported missing.
func GradeReadiness(scores map[string]int, stage string) ReadinessResult {
	if stage == "" {
		stage = "Seed"
	}

	result := ReadinessResult{Stage: stage}
	weightedTotal := 0.0
	maxPossible := 0.0
	var weak []readinessCriterion
	weakScores := map[string]int{}

	for _, criterion := range readinessCriteria {
		score := scores[criterion.ID]
		if score == 0 {
			result.MissingCriteria = append(result.MissingCriteria, criterion.Name)
			continue
		}
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}

		weightedTotal += float64(score) * criterion.Weight
		maxPossible += 10 * criterion.Weight

		result.Breakdown = append(result.Breakdown, CriterionScore{
			Criterion:  criterion.Name,
			Score:      score,
			Weight:     criterion.Weight,
			Assessment: assessScore(score),
		})

		if score <= 4 {
			weak = append(weak, criterion)
			weakScores[criterion.ID] = score
			result.WeakAreas = append(result.WeakAreas, criterion.Name)
		} else if score >= 8 {
			result.StrongAreas = append(result.StrongAreas, criterion.Name)
		}
	}
	result.CriteriaEvaluated = len(result.Breakdown)

	if maxPossible > 0 {
		result.OverallScore = math.Round(weightedTotal/maxPossible*1000) / 10
	}

	switch {
	case result.OverallScore >= 85:
		result.Grade = "A"
		result.Recommendation = "Strong Interest"
		result.Summary = "Exceptional deck. Meets or exceeds most VC criteria."
	case result.OverallScore >= 70:
		result.Grade = "B"
		result.Recommendation = "Promising"
		result.Summary = "Solid deck with some areas for improvement."
	case result.OverallScore >= 55:
		result.Grade = "C"
		result.Recommendation = "Consider"
		result.Summary = "Decent potential but significant gaps to address."
	case result.OverallScore >= 40:
		result.Grade = "D"
		result.Recommendation = "Pass"
		result.Summary = "Multiple weak areas. Not investment-ready."
	default:
		result.Grade = "F"
		result.Recommendation = "Strong Pass"
		result.Summary = "Fundamental issues across multiple criteria."
	}

	result.TopPriorities = readinessPriorities(weak, weakScores, result.MissingCriteria)
	return result
}

func assessScore(score int) string {
	switch {
	case score >= 9:
		return "Exceptional"
	case score >= 7:
		return "Strong"
	case score >= 5:
		return "Adequate"
	case score >= 3:
		return "Weak"
	default:
		return "Critical Gap"
	}
}

func readinessPriorities(weak []readinessCriterion, weakScores map[string]int, missing []string) []string {
	var priorities []string
	for i, name := range missing {
		if i >= 2 {
			break
		}
		priorities = append(priorities, fmt.Sprintf("Add %s section to deck", name))
	}

	sort.Slice(weak, func(i, j int) bool {
		return weakScores[weak[i].ID] < weakScores[weak[j].ID]
	})
	for _, criterion := range weak {
		if len(priorities) >= 3 {
			break
		}
		priorities = append(priorities, fmt.Sprintf("Strengthen %s: %s", criterion.Name, criterion.Description))
	}
	return priorities
}
