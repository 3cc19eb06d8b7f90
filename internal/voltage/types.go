// Package voltage implements the voltage analytics pipeline: per-reading
// phase analysis, RMS windowing, anomaly detection, and weekly ESO
// compliance — the stateful core described by this service's analytics
// specification. Every type and function here is pure or purely
// stateful (no I/O, no wall-clock reads other than through an injected
// clock); all of it is safe to exercise in a tight unit test loop.
package voltage

import "time"

// Phase identifies one of the three conductors of a three-phase supply.
// Modeled as a small enum rather than a string so per-phase state can
// live in fixed-size arrays instead of maps.
type Phase int

const (
	L1 Phase = iota
	L2
	L3
)

// Phases lists the canonical phase order used whenever a [3]T per-phase
// array is built or iterated.
var Phases = [3]Phase{L1, L2, L3}

func (p Phase) String() string {
	switch p {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders a Phase as its string form ("L1", "L2", "L3").
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// ParsePhase maps an HTTP query token to a Phase. ok is false for any
// value outside {L1,L2,L3} (case-insensitive).
func ParsePhase(s string) (Phase, bool) {
	switch s {
	case "L1", "l1":
		return L1, true
	case "L2", "l2":
		return L2, true
	case "L3", "l3":
		return L3, true
	default:
		return 0, false
	}
}

// Reading is one immutable sample from the smart-meter gateway.
type Reading struct {
	Timestamp time.Time
	V1        float64
	V2        float64
	V3        float64
}

// Voltage returns the sample for the given phase.
func (r Reading) Voltage(p Phase) float64 {
	switch p {
	case L1:
		return r.V1
	case L2:
		return r.V2
	default:
		return r.V3
	}
}

// PhaseAnalysis is the pure classification of one reading on one phase
// against the fixed voltage envelope (C2 output).
type PhaseAnalysis struct {
	Phase     Phase   `json:"phase"`
	Voltage   float64 `json:"voltage"`
	Nominal   float64 `json:"nominal"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Deviation float64 `json:"deviation"`
	InBounds  bool    `json:"in_bounds"`
	IsZero    bool    `json:"is_zero"`
}

// AnomalyKind classifies the kind of supply event an Anomaly records.
type AnomalyKind int

const (
	LongInterruption AnomalyKind = iota
	ShortInterruption
	VoltageDeviation
)

// MarshalJSON renders an AnomalyKind as its string form.
func (k AnomalyKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

func (k AnomalyKind) String() string {
	switch k {
	case LongInterruption:
		return "LONG_INTERRUPTION"
	case ShortInterruption:
		return "SHORT_INTERRUPTION"
	case VoltageDeviation:
		return "VOLTAGE_DEVIATION"
	default:
		return "UNKNOWN"
	}
}

// Severity grades an Anomaly's operational urgency.
type Severity int

const (
	Warning Severity = iota
	Critical
)

// MarshalJSON renders a Severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s Severity) String() string {
	if s == Critical {
		return "CRITICAL"
	}
	return "WARNING"
}

// Anomaly is an event-level record emitted by the anomaly tracker (C4).
// EndedAt and DurationSeconds are pointers because a just-opened
// deviation episode has neither yet — see §4.4. VMin and VMax are
// set on every anomaly the tracker emits.
type Anomaly struct {
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	Phase           Phase      `json:"phase"`
	Kind            AnomalyKind `json:"type"`
	Severity        Severity   `json:"severity"`
	VMin            *float64   `json:"v_min"`
	VMax            *float64   `json:"v_max"`
	DurationSeconds *float64   `json:"duration_seconds"`
}

// ActiveAnomaly describes one sub-machine of the anomaly tracker that is
// currently not idle.
type ActiveAnomaly struct {
	Phase     Phase     `json:"phase"`
	Type      string    `json:"type"` // "interruption" or "deviation"
	StartedAt time.Time `json:"started_at"`
}

// RmsWindow is the result of aggregating every reading whose timestamp
// fell in one fixed 10-minute wall-clock slot (C3 output).
type RmsWindow struct {
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	SampleCount  int       `json:"sample_count"`
	RmsV1        float64   `json:"voltage_l1"`
	RmsV2        float64   `json:"voltage_l2"`
	RmsV3        float64   `json:"voltage_l3"`
	OOBSecondsL1 float64   `json:"oob_seconds_l1"`
	OOBSecondsL2 float64   `json:"oob_seconds_l2"`
	OOBSecondsL3 float64   `json:"oob_seconds_l3"`
	CompliantL1  bool      `json:"compliant_l1"`
	CompliantL2  bool      `json:"compliant_l2"`
	CompliantL3  bool      `json:"compliant_l3"`
}

// RMS returns the rounded RMS value for the given phase.
func (w RmsWindow) RMS(p Phase) float64 {
	switch p {
	case L1:
		return w.RmsV1
	case L2:
		return w.RmsV2
	default:
		return w.RmsV3
	}
}

// OOBSeconds returns the out-of-envelope seconds accounted for the
// given phase within this window.
func (w RmsWindow) OOBSeconds(p Phase) float64 {
	switch p {
	case L1:
		return w.OOBSecondsL1
	case L2:
		return w.OOBSecondsL2
	default:
		return w.OOBSecondsL3
	}
}

// Compliant reports whether the given phase met the 30s OOB budget.
func (w RmsWindow) Compliant(p Phase) bool {
	switch p {
	case L1:
		return w.CompliantL1
	case L2:
		return w.CompliantL2
	default:
		return w.CompliantL3
	}
}

// WeeklyCompliance is the pure derivation of C5 over a week's worth of
// RmsWindows.
type WeeklyCompliance struct {
	WeekStart          time.Time `json:"week_start"`
	WeekEnd            time.Time `json:"week_end"`
	TotalWindows       int       `json:"total_windows"`
	CompliantWindowsL1 int       `json:"compliant_windows_l1"`
	CompliantWindowsL2 int       `json:"compliant_windows_l2"`
	CompliantWindowsL3 int       `json:"compliant_windows_l3"`
	CompliancePctL1    float64   `json:"compliance_pct_l1"`
	CompliancePctL2    float64   `json:"compliance_pct_l2"`
	CompliancePctL3    float64   `json:"compliance_pct_l3"`
	OverallCompliant   bool      `json:"overall_compliant"`
}
