package voltage

import "testing"

func TestInBoundsEnvelope(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		v    float64
		want bool
	}{
		{220, true},
		{240, true},
		{219.999, false},
		{240.001, false},
		{230, true},
	}
	for _, c := range cases {
		if got := InBounds(cfg, c.v); got != c.want {
			t.Errorf("InBounds(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestIsZeroThreshold(t *testing.T) {
	cfg := DefaultConfig()
	if !IsZero(cfg, 9.999) {
		t.Error("IsZero(9.999) should be true")
	}
	if IsZero(cfg, 10.0) {
		t.Error("IsZero(10.0) should be false")
	}
}

func TestAnalyzeReadingOrder(t *testing.T) {
	cfg := DefaultConfig()
	r := Reading{V1: 230, V2: 0, V3: 250}
	got := AnalyzeReading(cfg, r)
	if got[0].Phase != L1 || got[1].Phase != L2 || got[2].Phase != L3 {
		t.Fatalf("phase order wrong: %+v", got)
	}
	if !got[0].InBounds || got[0].IsZero {
		t.Errorf("L1 classification wrong: %+v", got[0])
	}
	if got[1].InBounds == false && !got[1].IsZero {
		t.Errorf("L2 should be zero: %+v", got[1])
	}
	if !got[1].IsZero {
		t.Errorf("L2 should report IsZero: %+v", got[1])
	}
	if got[2].InBounds || got[2].IsZero {
		t.Errorf("L3 should be OOB, non-zero: %+v", got[2])
	}
	if got[2].Deviation != 250-cfg.NominalVoltage1Ph {
		t.Errorf("L3 deviation wrong: %v", got[2].Deviation)
	}
}
