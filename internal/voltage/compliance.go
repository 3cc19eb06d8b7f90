package voltage

import (
	"math"
	"time"
)

// EvaluateCompliance is the pure derivation of C5: given a set of
// RmsWindows belonging to one week and that week's start instant, it
// computes the ESO 95% weekly compliance verdict. Windows outside
// [weekStart, weekEnd) are the caller's responsibility to have already
// filtered out — this function trusts its input and does not refilter.
func EvaluateCompliance(cfg Config, windows []RmsWindow, weekStart time.Time) WeeklyCompliance {
	weekEnd := weekStart.AddDate(0, 0, 7)
	total := len(windows)

	wc := WeeklyCompliance{
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		TotalWindows: total,
	}
	if total == 0 {
		return wc
	}

	for _, w := range windows {
		if w.CompliantL1 {
			wc.CompliantWindowsL1++
		}
		if w.CompliantL2 {
			wc.CompliantWindowsL2++
		}
		if w.CompliantL3 {
			wc.CompliantWindowsL3++
		}
	}

	n := float64(total)
	wc.CompliancePctL1 = round2(float64(wc.CompliantWindowsL1) / n * 100)
	wc.CompliancePctL2 = round2(float64(wc.CompliantWindowsL2) / n * 100)
	wc.CompliancePctL3 = round2(float64(wc.CompliantWindowsL3) / n * 100)

	wc.OverallCompliant = wc.CompliancePctL1 >= cfg.WeeklyCompliancePct &&
		wc.CompliancePctL2 >= cfg.WeeklyCompliancePct &&
		wc.CompliancePctL3 >= cfg.WeeklyCompliancePct
	return wc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WeekStart aligns t to Monday 00:00 in t's own location. Callers that
// need a specific location (see SPEC_FULL.md §D.1) should convert t
// with t.In(loc) before calling this.
func WeekStart(t time.Time) time.Time {
	// time.Weekday: Sunday = 0 ... Saturday = 6. Days since Monday:
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -daysSinceMonday)
}
