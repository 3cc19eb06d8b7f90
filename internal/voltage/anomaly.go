package voltage

import "time"

// activeInterruption is present only while a phase is mid-interruption;
// a nil *activeInterruption on phaseState means that sub-machine is
// Idle. This is the Go rendering of the Idle | Active{...} tagged
// variant called for in the design notes: there is no way to construct
// an "ongoing interruption with no start time."
type activeInterruption struct {
	startedAt time.Time
}

// activeDeviation is present only while a phase is mid-deviation.
type activeDeviation struct {
	startedAt  time.Time
	vMin, vMax float64
}

type phaseState struct {
	interruption *activeInterruption
	deviation    *activeDeviation
}

// AnomalyTracker is the per-phase event-detection state machine
// described as C4. It keeps two orthogonal sub-states per phase — an
// interruption machine and a deviation machine — and emits Anomaly
// events on state transitions as readings are pushed through it.
type AnomalyTracker struct {
	cfg    Config
	states [3]phaseState
}

// NewAnomalyTracker builds a C4 instance with every sub-machine Idle.
func NewAnomalyTracker(cfg Config) *AnomalyTracker {
	return &AnomalyTracker{cfg: cfg}
}

// Push feeds one reading through every phase's state machines and
// returns the anomalies, if any, that transition produced — zero, one,
// or (for S4-style independent-phase cases) several.
//
// Per phase, interruption logic runs before deviation logic on the
// same reading (§4.4's ordering rule): this guarantees an opening
// deviation event is never emitted on the reading that closes an
// interruption unless the recovery voltage is itself out of bounds.
func (t *AnomalyTracker) Push(r Reading) []Anomaly {
	var out []Anomaly
	for _, p := range Phases {
		v := r.Voltage(p)
		out = append(out, t.pushPhase(p, v, r.Timestamp)...)
	}
	return out
}

func (t *AnomalyTracker) pushPhase(p Phase, v float64, ts time.Time) []Anomaly {
	var events []Anomaly
	st := &t.states[p]
	zero := IsZero(t.cfg, v)

	// --- interruption machine ---
	switch {
	case st.interruption == nil && zero:
		st.interruption = &activeInterruption{startedAt: ts}
	case st.interruption != nil && zero:
		// stay IN_INTERRUPTION
	case st.interruption != nil && !zero:
		duration := ts.Sub(st.interruption.startedAt).Seconds()
		kind, sev := ShortInterruption, Warning
		if duration > t.cfg.LongInterruptionSeconds {
			kind, sev = LongInterruption, Critical
		}
		vmin, vmax := 0.0, v
		endedAt := ts
		events = append(events, Anomaly{
			StartedAt:       st.interruption.startedAt,
			EndedAt:         &endedAt,
			Phase:           p,
			Kind:            kind,
			Severity:        sev,
			VMin:            &vmin,
			VMax:            &vmax,
			DurationSeconds: &duration,
		})
		st.interruption = nil
	default:
		// IDLE + NONZERO: stay idle
	}

	// --- deviation machine ---
	oob := !zero && !InBounds(t.cfg, v)
	inBounds := InBounds(t.cfg, v)
	switch {
	case st.deviation == nil && oob:
		st.deviation = &activeDeviation{startedAt: ts, vMin: v, vMax: v}
		vmin, vmax := v, v
		events = append(events, Anomaly{
			StartedAt: ts,
			EndedAt:   nil,
			Phase:     p,
			Kind:      VoltageDeviation,
			Severity:  Warning,
			VMin:      &vmin,
			VMax:      &vmax,
		})
	case st.deviation != nil && oob:
		if v < st.deviation.vMin {
			st.deviation.vMin = v
		}
		if v > st.deviation.vMax {
			st.deviation.vMax = v
		}
	case st.deviation != nil && inBounds:
		duration := ts.Sub(st.deviation.startedAt).Seconds()
		vmin, vmax := st.deviation.vMin, st.deviation.vMax
		endedAt := ts
		events = append(events, Anomaly{
			StartedAt:       st.deviation.startedAt,
			EndedAt:         &endedAt,
			Phase:           p,
			Kind:            VoltageDeviation,
			Severity:        Warning,
			VMin:            &vmin,
			VMax:            &vmax,
			DurationSeconds: &duration,
		})
		st.deviation = nil
	case st.deviation != nil && zero:
		// the interruption machine now owns this event; close silently
		st.deviation = nil
	default:
		// IDLE + IB or ZERO: no deviation action
	}

	return events
}

// Active returns one entry per sub-machine that is currently not Idle.
func (t *AnomalyTracker) Active() []ActiveAnomaly {
	var out []ActiveAnomaly
	for _, p := range Phases {
		st := t.states[p]
		if st.interruption != nil {
			out = append(out, ActiveAnomaly{Phase: p, Type: "interruption", StartedAt: st.interruption.startedAt})
		}
		if st.deviation != nil {
			out = append(out, ActiveAnomaly{Phase: p, Type: "deviation", StartedAt: st.deviation.startedAt})
		}
	}
	return out
}

// Reset returns every sub-machine to Idle.
func (t *AnomalyTracker) Reset() {
	t.states = [3]phaseState{}
}
