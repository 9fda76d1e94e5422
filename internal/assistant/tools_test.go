package assistant

import (
	"strings"
	"testing"
)

func TestValidateTAMStatuses(t *testing.T) {
	cases := []struct {
		name    string
		claimed float64
		want    string
	}{
		{"understated", 40_000_000, "UNDERSTATED"},
		{"reasonable", 100_000_000, "REASONABLE"},
		{"aggressive", 170_000_000, "AGGRESSIVE"},
		{"overstated", 250_000_000, "OVERSTATED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Bottom-up: 100k customers at $1k ARPU = $100M.
			result := ValidateTAM(TAMInput{
				ClaimedTAM:      tc.claimed,
				TargetCustomers: 100_000,
				ARPU:            1_000,
			})
			if result.Validation != tc.want {
				t.Fatalf("validation = %q, want %q (ratio %v)", result.Validation, tc.want, result.Ratio)
			}
			if result.CalculatedTAM != 100_000_000 {
				t.Fatalf("calculated = %v", result.CalculatedTAM)
			}
		})
	}
}

func TestValidateTAMProjectsGrowth(t *testing.T) {
	result := ValidateTAM(TAMInput{
		ClaimedTAM:      100_000,
		TargetCustomers: 1_000,
		ARPU:            100,
		GrowthRate:      0.10,
	})
	// 100k * 1.1^5 = 161051
	if result.Projected5Y != 161051 {
		t.Fatalf("projected = %v, want 161051", result.Projected5Y)
	}

	flat := ValidateTAM(TAMInput{ClaimedTAM: 100_000, TargetCustomers: 1_000, ARPU: 100})
	if flat.Projected5Y != 100_000 {
		t.Fatalf("flat projection = %v", flat.Projected5Y)
	}
}

func TestValidateTAMZeroCustomers(t *testing.T) {
	result := ValidateTAM(TAMInput{ClaimedTAM: 1_000_000})
	if result.Ratio != 0 || result.Validation != "UNDERSTATED" {
		t.Fatalf("zero bottom-up: %+v", result)
	}
}

func TestEstimateSAMSOMDefaults(t *testing.T) {
	result := EstimateSAMSOM(SAMSOMInput{TAM: 1_000_000_000})
	if result.SAM != 1_000_000_000 {
		t.Fatalf("sam = %v", result.SAM)
	}
	if result.SOM != 10_000_000 {
		t.Fatalf("som = %v, want 1%% capture", result.SOM)
	}
	if result.SOMAssessment != "Achievable" {
		t.Fatalf("som assessment = %q", result.SOMAssessment)
	}
	if result.SAMAssessment != "Review needed" {
		t.Fatalf("sam assessment = %q", result.SAMAssessment)
	}
}

func TestEstimateSAMSOMNarrowed(t *testing.T) {
	result := EstimateSAMSOM(SAMSOMInput{
		TAM:           1_000_000_000,
		GeographicPct: 0.5,
		SegmentPct:    0.4,
		CaptureRate:   0.02,
	})
	if result.SAM != 200_000_000 {
		t.Fatalf("sam = %v", result.SAM)
	}
	if result.SOM != 4_000_000 {
		t.Fatalf("som = %v", result.SOM)
	}
	if result.SAMAssessment != "Reasonable" {
		t.Fatalf("sam assessment = %q", result.SAMAssessment)
	}
}

func TestBenchmarkFundingAssessments(t *testing.T) {
	cases := []struct {
		name  string
		ask   float64
		stage string
		want  string
	}{
		{"below", 50_000, "Seed", "BELOW_RANGE"},
		{"within", 1_000_000, "Seed", "WITHIN_RANGE"},
		{"high end", 2_500_000, "Seed", "HIGH_END"},
		{"above", 5_000_000, "Seed", "ABOVE_RANGE"},
		{"series a", 10_000_000, "series a", "WITHIN_RANGE"},
		{"unknown stage defaults to seed", 1_000_000, "Mezzanine", "WITHIN_RANGE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := BenchmarkFunding(FundingInput{FundingAsk: tc.ask, Stage: tc.stage})
			if result.Assessment != tc.want {
				t.Fatalf("assessment = %q, want %q", result.Assessment, tc.want)
			}
		})
	}
}

func TestBenchmarkFundingImpliedValuation(t *testing.T) {
	result := BenchmarkFunding(FundingInput{FundingAsk: 1_000_000, Stage: "Seed", MRR: 50_000, TeamSize: 6})
	if result.ImpliedValuationLow != 4_000_000 {
		t.Fatalf("valuation low = %v", result.ImpliedValuationLow)
	}
	// $4M valuation on $600k ARR is a 6.7x multiple.
	if !strings.Contains(result.RevenueAnalysis, "reasonable") {
		t.Fatalf("revenue analysis = %q", result.RevenueAnalysis)
	}
	if !strings.Contains(result.TeamAnalysis, "Team of 6") {
		t.Fatalf("team analysis = %q", result.TeamAnalysis)
	}
}

func TestGradeReadinessWeightedScore(t *testing.T) {
	scores := map[string]int{}
	for _, criterion := range readinessCriteria {
		scores[criterion.ID] = 8
	}

	result := GradeReadiness(scores, "Seed")
	if result.OverallScore != 80 {
		t.Fatalf("overall = %v, want 80", result.OverallScore)
	}
	if result.Grade != "B" || result.Recommendation != "Promising" {
		t.Fatalf("grade = %s %s", result.Grade, result.Recommendation)
	}
	if result.CriteriaEvaluated != len(readinessCriteria) {
		t.Fatalf("criteria evaluated = %d", result.CriteriaEvaluated)
	}
	if len(result.StrongAreas) != len(readinessCriteria) {
		t.Fatalf("strong areas = %v", result.StrongAreas)
	}
}

func TestGradeReadinessSkipsMissingCriteria(t *testing.T) {
	result := GradeReadiness(map[string]int{"team": 10, "traction": 10}, "")
	// Only scored criteria count toward the weighted maximum.
	if result.OverallScore != 100 {
		t.Fatalf("overall = %v, want 100", result.OverallScore)
	}
	if result.Grade != "A" {
		t.Fatalf("grade = %s", result.Grade)
	}
	if len(result.MissingCriteria) != len(readinessCriteria)-2 {
		t.Fatalf("missing = %v", result.MissingCriteria)
	}
	if result.Stage != "Seed" {
		t.Fatalf("stage default = %q", result.Stage)
	}
}

func TestGradeReadinessPriorities(t *testing.T) {
	result := GradeReadiness(map[string]int{
		"team":     2,
		"traction": 3,
		"market":   9,
	}, "Seed")
	if len(result.TopPriorities) == 0 {
		t.Fatalf("expected priorities")
	}
	// Missing sections rank first, then the weakest scores.
	if !strings.HasPrefix(result.TopPriorities[0], "Add ") {
		t.Fatalf("priorities = %v", result.TopPriorities)
	}
	if len(result.WeakAreas) != 2 {
		t.Fatalf("weak areas = %v", result.WeakAreas)
	}
}
