package voltage

import (
	"log/slog"
	"math"
	"time"
)

// WindowAggregator is the single-slot RMS buffer described as C3. It
// holds at most one in-flight window's worth of readings — at the
// spec's default 10s poll cadence, about 60 readings.
//
// Out-of-order readings: the aggregator assumes non-decreasing
// timestamps (§1 Non-goals, §4.3). A reading whose slot is strictly
// before the currently open slot is out-of-contract; per the decision
// recorded in SPEC_FULL.md §D.2, it is folded into the open slot
// rather than dropped, and the occurrence is logged — it must not
// corrupt state (§7).
type WindowAggregator struct {
	cfg  Config
	log  *slog.Logger
	open *openWindow
}

type openWindow struct {
	slotStart time.Time
	readings  []Reading
}

// NewWindowAggregator builds a C3 instance. log may be nil, in which
// case out-of-contract readings are silently folded without a log
// line (used by pure unit tests that don't want log noise).
func NewWindowAggregator(cfg Config, log *slog.Logger) *WindowAggregator {
	return &WindowAggregator{cfg: cfg, log: log}
}

func (a *WindowAggregator) windowDuration() time.Duration {
	return time.Duration(a.cfg.WindowSeconds) * time.Second
}

func slotStartFor(ts time.Time, windowDur time.Duration) time.Time {
	return ts.Truncate(windowDur)
}

// Add buffers r. When r belongs to a later slot than the one
// currently open, the previously buffered readings are aggregated into
// a completed RmsWindow, a new slot is opened containing only r, and
// the completed window is returned. Otherwise Add returns nil.
func (a *WindowAggregator) Add(r Reading) *RmsWindow {
	slotStart := slotStartFor(r.Timestamp, a.windowDuration())

	if a.open == nil {
		a.open = &openWindow{slotStart: slotStart, readings: []Reading{r}}
		return nil
	}

	switch {
	case slotStart.Equal(a.open.slotStart):
		a.open.readings = append(a.open.readings, r)
		return nil
	case slotStart.After(a.open.slotStart):
		completed := a.aggregate(a.open.slotStart, a.open.readings)
		a.open = &openWindow{slotStart: slotStart, readings: []Reading{r}}
		return &completed
	default:
		if a.log != nil {
			a.log.Warn("out_of_contract_reading",
				"reading_ts", r.Timestamp, "open_slot", a.open.slotStart)
		}
		a.open.readings = append(a.open.readings, r)
		return nil
	}
}

// Flush aggregates and clears the currently open window, if any. It
// returns nil when no window is open or the open window is empty.
func (a *WindowAggregator) Flush() *RmsWindow {
	if a.open == nil || len(a.open.readings) == 0 {
		return nil
	}
	completed := a.aggregate(a.open.slotStart, a.open.readings)
	a.open = nil
	return &completed
}

// aggregate computes an RmsWindow from a set of readings in a single
// slot. The empty-readings path (len(readings) == 0) is only reachable
// from direct tests of this function — Flush never calls it with an
// empty slice (see the empty-readings edge case in §4.3).
func (a *WindowAggregator) aggregate(slotStart time.Time, readings []Reading) RmsWindow {
	windowEnd := slotStart.Add(a.windowDuration())
	w := RmsWindow{
		WindowStart: slotStart,
		WindowEnd:   windowEnd,
		SampleCount: len(readings),
	}

	if len(readings) == 0 {
		w.RmsV1, w.RmsV2, w.RmsV3 = 0, 0, 0
		w.OOBSecondsL1 = a.cfg.WindowSeconds
		w.OOBSecondsL2 = a.cfg.WindowSeconds
		w.OOBSecondsL3 = a.cfg.WindowSeconds
		w.CompliantL1, w.CompliantL2, w.CompliantL3 = false, false, false
		return w
	}

	var sq1, sq2, sq3 float64
	var oob1, oob2, oob3 int
	for _, r := range readings {
		sq1 += r.V1 * r.V1
		sq2 += r.V2 * r.V2
		sq3 += r.V3 * r.V3
		if !InBounds(a.cfg, r.V1) {
			oob1++
		}
		if !InBounds(a.cfg, r.V2) {
			oob2++
		}
		if !InBounds(a.cfg, r.V3) {
			oob3++
		}
	}
	n := float64(len(readings))
	w.RmsV1 = round3(math.Sqrt(sq1 / n))
	w.RmsV2 = round3(math.Sqrt(sq2 / n))
	w.RmsV3 = round3(math.Sqrt(sq3 / n))

	w.OOBSecondsL1 = oobSeconds(oob1, a.cfg)
	w.OOBSecondsL2 = oobSeconds(oob2, a.cfg)
	w.OOBSecondsL3 = oobSeconds(oob3, a.cfg)

	w.CompliantL1 = w.OOBSecondsL1 <= a.cfg.WindowOOBMaxSeconds
	w.CompliantL2 = w.OOBSecondsL2 <= a.cfg.WindowOOBMaxSeconds
	w.CompliantL3 = w.OOBSecondsL3 <= a.cfg.WindowOOBMaxSeconds
	return w
}

func oobSeconds(count int, cfg Config) float64 {
	s := float64(count) * cfg.PollIntervalSeconds
	if s > cfg.WindowSeconds {
		s = cfg.WindowSeconds
	}
	return s
}

// round3 rounds to 3 decimals, ties away from zero — math.Round already
// rounds half away from zero, so this is a direct scale/round/unscale.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
