package config

import (
	"testing"
	"time"
)

func TestLoadKeepsRunTimeoutBelowDeadline(t *testing.T) {
	t.Setenv("ANALYZING_DEADLINE", "15m")
	t.Setenv("COUNCIL_RUN_TIMEOUT", "10m")

	cfg := Load()
	if cfg.CouncilRunTimeout != 10*time.Minute {
		t.Fatalf("CouncilRunTimeout = %s, want 10m", cfg.CouncilRunTimeout)
	}
}

func TestLoadClampsRunTimeoutAboveDeadline(t *testing.T) {
	t.Setenv("ANALYZING_DEADLINE", "10m")
	t.Setenv("COUNCIL_RUN_TIMEOUT", "30m")

	cfg := Load()
	if cfg.CouncilRunTimeout >= cfg.AnalyzingDeadline {
		t.Fatalf("CouncilRunTimeout = %s, want below deadline %s", cfg.CouncilRunTimeout, cfg.AnalyzingDeadline)
	}
}

func TestLoadClampsTinyDeadline(t *testing.T) {
	t.Setenv("ANALYZING_DEADLINE", "30s")
	t.Setenv("COUNCIL_RUN_TIMEOUT", "10m")

	cfg := Load()
	if cfg.CouncilRunTimeout <= 0 || cfg.CouncilRunTimeout >= cfg.AnalyzingDeadline {
		t.Fatalf("CouncilRunTimeout = %s, want within (0, %s)", cfg.CouncilRunTimeout, cfg.AnalyzingDeadline)
	}
}
