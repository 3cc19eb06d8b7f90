package voltage

import (
	"testing"
	"time"
)

func makeWindows(n int, failFrom int) []RmsWindow {
	out := make([]RmsWindow, n)
	for i := 0; i < n; i++ {
		out[i] = RmsWindow{
			CompliantL1: i >= failFrom,
			CompliantL2: true,
			CompliantL3: true,
		}
	}
	return out
}

// S6 — weekly 95% boundary.
func TestWeeklyComplianceBoundary(t *testing.T) {
	cfg := DefaultConfig()
	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday

	pass := EvaluateCompliance(cfg, makeWindows(100, 5), weekStart)
	if pass.CompliancePctL1 != 95.0 {
		t.Errorf("expected pct_l1=95.0, got %v", pass.CompliancePctL1)
	}
	if !pass.OverallCompliant {
		t.Errorf("expected overall_compliant=true at exactly 95%%")
	}

	fail := EvaluateCompliance(cfg, makeWindows(100, 6), weekStart)
	if fail.CompliancePctL1 != 94.0 {
		t.Errorf("expected pct_l1=94.0, got %v", fail.CompliancePctL1)
	}
	if fail.OverallCompliant {
		t.Errorf("expected overall_compliant=false at 94%%")
	}
}

func TestWeeklyComplianceEmptyWindows(t *testing.T) {
	cfg := DefaultConfig()
	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	wc := EvaluateCompliance(cfg, nil, weekStart)
	if wc.TotalWindows != 0 || wc.OverallCompliant {
		t.Errorf("expected zero windows and non-compliant, got %+v", wc)
	}
	if wc.CompliancePctL1 != 0 || wc.CompliancePctL2 != 0 || wc.CompliancePctL3 != 0 {
		t.Errorf("expected all percentages zero, got %+v", wc)
	}
}

func TestWeekStartAlignsToMonday(t *testing.T) {
	// Wednesday 2026-01-07 should align back to Monday 2026-01-05.
	wed := time.Date(2026, 1, 7, 15, 30, 0, 0, time.UTC)
	got := WeekStart(wed)
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("WeekStart(%v) = %v, want %v", wed, got, want)
	}
}

func TestWeekEndIsSevenDaysLater(t *testing.T) {
	cfg := DefaultConfig()
	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	wc := EvaluateCompliance(cfg, makeWindows(10, 0), weekStart)
	if !wc.WeekEnd.Equal(weekStart.AddDate(0, 0, 7)) {
		t.Errorf("week_end wrong: %v", wc.WeekEnd)
	}
}
