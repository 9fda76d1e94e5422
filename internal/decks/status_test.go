package decks

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		status     Status
		canStart   bool
		canArchive bool
		forDedup   bool
	}{
		{StatusPending, true, true, true},
		{StatusAnalyzing, false, false, true},
		{StatusAnalyzed, true, true, true},
		{StatusArchived, false, false, false},
		{StatusFailed, true, true, false},
	}
	for _, tc := range cases {
		if got := tc.status.CanStartAnalysis(); got != tc.canStart {
			t.Errorf("%s: CanStartAnalysis = %v, want %v", tc.status, got, tc.canStart)
		}
		if got := tc.status.CanArchive(); got != tc.canArchive {
			t.Errorf("%s: CanArchive = %v, want %v", tc.status, got, tc.canArchive)
		}
		if got := tc.status.activeForDedup(); got != tc.forDedup {
			t.Errorf("%s: activeForDedup = %v, want %v", tc.status, got, tc.forDedup)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if Status("bogus").Valid() {
		t.Fatal("bogus status should not validate")
	}
	if !StatusAnalyzing.Valid() {
		t.Fatal("analyzing should validate")
	}
}
