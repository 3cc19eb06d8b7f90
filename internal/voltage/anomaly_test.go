package voltage

import (
	"testing"
	"time"
)

func at(seconds int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

// S1 — short interruption boundary.
func TestShortInterruptionBoundary(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewAnomalyTracker(cfg)

	var all []Anomaly
	push := func(sec int, v1 float64) {
		r := Reading{Timestamp: at(sec), V1: v1, V2: 230, V3: 230}
		all = append(all, tr.Push(r)...)
	}
	push(0, 0)
	push(10, 0)
	push(170, 0)
	push(180, 231)

	if len(all) != 1 {
		t.Fatalf("expected exactly 1 anomaly, got %d: %+v", len(all), all)
	}
	a := all[0]
	if a.Phase != L1 || a.Kind != ShortInterruption || a.Severity != Warning {
		t.Fatalf("unexpected anomaly shape: %+v", a)
	}
	if a.EndedAt == nil || *a.DurationSeconds != 180 {
		t.Fatalf("expected duration 180, got %+v", a)
	}
	if *a.VMin != 0 || *a.VMax != 231 {
		t.Fatalf("expected vmin=0 vmax=231, got vmin=%v vmax=%v", *a.VMin, *a.VMax)
	}
}

// S2 — long interruption just above 180s.
func TestLongInterruptionJustAbove180(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewAnomalyTracker(cfg)

	tr.Push(Reading{Timestamp: at(0), V1: 0, V2: 230, V3: 230})
	events := tr.Push(Reading{Timestamp: at(181), V1: 232, V2: 230, V3: 230})

	if len(events) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(events))
	}
	a := events[0]
	if a.Kind != LongInterruption || a.Severity != Critical {
		t.Fatalf("expected LONG_INTERRUPTION/CRITICAL, got %v/%v", a.Kind, a.Severity)
	}
	if *a.DurationSeconds != 181 {
		t.Fatalf("expected duration 181, got %v", *a.DurationSeconds)
	}
}

// S3 — deviation open/close.
func TestDeviationOpenClose(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewAnomalyTracker(cfg)

	var all []Anomaly
	push := func(sec int, v1 float64) {
		r := Reading{Timestamp: at(sec), V1: v1, V2: 230, V3: 230}
		all = append(all, tr.Push(r)...)
	}
	push(0, 245)
	push(10, 248)
	push(20, 230)

	if len(all) != 2 {
		t.Fatalf("expected 2 deviation anomalies, got %d: %+v", len(all), all)
	}
	open, closed := all[0], all[1]
	if open.EndedAt != nil {
		t.Errorf("opening anomaly should have nil EndedAt, got %v", open.EndedAt)
	}
	if *open.VMin != 245 || *open.VMax != 245 {
		t.Errorf("opening anomaly vmin/vmax wrong: %v/%v", *open.VMin, *open.VMax)
	}
	if closed.EndedAt == nil || !closed.EndedAt.Equal(at(20)) {
		t.Errorf("closing anomaly ended_at wrong: %v", closed.EndedAt)
	}
	if *closed.VMin != 245 || *closed.VMax != 248 {
		t.Errorf("closing anomaly vmin/vmax wrong: %v/%v", *closed.VMin, *closed.VMax)
	}
}

// S4 — independent phases.
func TestIndependentPhases(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewAnomalyTracker(cfg)

	first := tr.Push(Reading{Timestamp: at(0), V1: 230, V2: 0, V3: 250})
	if len(first) != 1 {
		t.Fatalf("expected L3 opening deviation on first push, got %d: %+v", len(first), first)
	}
	if first[0].Phase != L3 || first[0].EndedAt != nil {
		t.Fatalf("unexpected first event: %+v", first[0])
	}

	second := tr.Push(Reading{Timestamp: at(10), V1: 230, V2: 229, V3: 230})
	var gotL2, gotL3 bool
	for _, a := range second {
		switch a.Phase {
		case L2:
			gotL2 = true
			if a.Kind != ShortInterruption || *a.DurationSeconds != 10 {
				t.Errorf("L2 anomaly wrong: %+v", a)
			}
		case L3:
			gotL3 = true
			if a.EndedAt == nil {
				t.Errorf("L3 closing anomaly should have EndedAt set: %+v", a)
			}
		}
	}
	if !gotL2 || !gotL3 {
		t.Fatalf("expected both L2 and L3 anomalies, got %+v", second)
	}
}

func TestActiveAnomaliesAndReset(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewAnomalyTracker(cfg)
	tr.Push(Reading{Timestamp: at(0), V1: 0, V2: 245, V3: 230})

	active := tr.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active sub-machines, got %d: %+v", len(active), active)
	}
	tr.Reset()
	if got := tr.Active(); len(got) != 0 {
		t.Fatalf("expected no active sub-machines after reset, got %+v", got)
	}
}
