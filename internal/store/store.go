// Package store implements the state store (C6): it owns the bounded
// reading/window/anomaly ring buffers and the live anomaly-tracker and
// window-aggregator state, coordinating the voltage analytics pipeline
// on every incoming reading and serving the read queries the HTTP
// query facade (C7) needs.
//
// Concurrency model (§5 of the specification): a single sync.RWMutex
// guards all mutable state. Push takes the write lock so its effects
// are linearized before any read that starts after Push returns; every
// read method takes the read lock for its whole duration and returns a
// copied snapshot, so a caller never observes a ring buffer mid-
// mutation. There is no suspension under the lock — every operation in
// this package is pure computation over in-memory slices.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/metrics"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

// Default ring-buffer capacities from §3/§5 of the specification.
const (
	DefaultMaxReadings  = 86_400
	DefaultMaxWindows   = 2_016
	DefaultMaxAnomalies = 1_000
)

// Config bundles the ambient knobs the store needs beyond the
// threshold constants in voltage.Config: ring-buffer sizes (tests
// shrink these to keep fixtures small) and an injected clock/location
// so weekly-compliance boundaries are deterministic under test (§9
// "Time source").
type Config struct {
	MaxReadings  int
	MaxWindows   int
	MaxAnomalies int
	Now          func() time.Time
	Location     *time.Location
}

// DefaultStoreConfig returns the production ring-buffer sizes, the
// real wall clock, and the location decided in SPEC_FULL.md §D.1.
func DefaultStoreConfig() Config {
	loc, err := time.LoadLocation("Europe/Vilnius")
	if err != nil {
		loc = time.UTC
	}
	return Config{
		MaxReadings:  DefaultMaxReadings,
		MaxWindows:   DefaultMaxWindows,
		MaxAnomalies: DefaultMaxAnomalies,
		Now:          time.Now,
		Location:     loc,
	}
}

// PushResult is what C6.push returns to its caller: the anomalies
// emitted by this reading (zero or more) and the completed window, if
// this reading closed one.
type PushResult struct {
	Anomalies       []voltage.Anomaly
	CompletedWindow *voltage.RmsWindow
}

// Stats summarizes the store's current size for the /summary and
// diagnostic endpoints.
type Stats struct {
	TotalReadings   int `json:"total_readings"`
	TotalWindows    int `json:"total_windows"`
	TotalAnomalies  int `json:"total_anomalies"`
	ActiveAnomalies int `json:"active_anomalies"`
}

// AnomalyFilter is the conjunctive filter accepted by Anomalies. A nil
// Kind/Phase/From/To means "no constraint on this field."
type AnomalyFilter struct {
	Kind  *voltage.AnomalyKind
	Phase *voltage.Phase
	From  *time.Time
	To    *time.Time
}

// Store is the C6 state store.
type Store struct {
	mu   sync.RWMutex
	vcfg voltage.Config
	cfg  Config
	log  *slog.Logger

	readings  *ring[voltage.Reading]
	windows   *ring[voltage.RmsWindow]
	anomalies *ring[voltage.Anomaly]

	tracker *voltage.AnomalyTracker
	agg     *voltage.WindowAggregator
	metrics *metrics.Metrics

	latest      *voltage.Reading
	totalPushes int
}

// SetMetrics attaches a *metrics.Metrics instance that Push reports
// the domain counters and gauge to. Safe to call with nil, which
// restores the no-op default every Store starts with.
func (s *Store) SetMetrics(m *metrics.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// New builds a Store. log may be nil.
func New(vcfg voltage.Config, cfg Config, log *slog.Logger) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Store{
		vcfg:      vcfg,
		cfg:       cfg,
		log:       log,
		readings:  newRing[voltage.Reading](cfg.MaxReadings),
		windows:   newRing[voltage.RmsWindow](cfg.MaxWindows),
		anomalies: newRing[voltage.Anomaly](cfg.MaxAnomalies),
		tracker:   voltage.NewAnomalyTracker(vcfg),
		agg:       voltage.NewWindowAggregator(vcfg, log),
	}
}

// Push records one reading, runs the anomaly tracker and window
// aggregator over it, appends their outputs to the respective ring
// buffers, and always overwrites latest — even if the reading produced
// no anomalies or completed window.
func (s *Store) Push(r voltage.Reading) PushResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings.push(r)
	s.totalPushes++

	anomalies := s.tracker.Push(r)
	for _, a := range anomalies {
		s.anomalies.push(a)
	}

	completed := s.agg.Add(r)
	if completed != nil {
		s.windows.push(*completed)
	}

	latest := r
	s.latest = &latest

	if s.metrics != nil {
		kinds := make([]string, len(anomalies))
		for i, a := range anomalies {
			kinds[i] = a.Kind.String()
		}
		s.metrics.ObservePush(kinds, completed != nil)
		s.metrics.SetActiveAnomalies(len(s.tracker.Active()))
	}

	return PushResult{Anomalies: anomalies, CompletedWindow: completed}
}

// Latest returns the most recently pushed reading, if any.
func (s *Store) Latest() (voltage.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return voltage.Reading{}, false
	}
	return *s.latest, true
}

// Config exposes the immutable threshold constants the query facade
// needs to render bounds in responses.
func (s *Store) Config() voltage.Config {
	return s.vcfg
}

// Readings returns every buffered reading with timestamp in
// [from, to], inclusive on both ends. A nil bound is unconstrained.
func (s *Store) Readings(from, to *time.Time) []voltage.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.readings.snapshot()
	return filterReadings(all, from, to)
}

func filterReadings(all []voltage.Reading, from, to *time.Time) []voltage.Reading {
	out := make([]voltage.Reading, 0, len(all))
	for _, r := range all {
		if from != nil && r.Timestamp.Before(*from) {
			continue
		}
		if to != nil && r.Timestamp.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ReadingsDownsampled filters to [from, to] and, if the result is
// longer than maxPoints, picks evenly spaced indices
// floor(i * n/maxPoints) for i in [0, maxPoints), appending the final
// filtered reading if it was not already selected (§4.6, §8 invariant
// 6: length never exceeds maxPoints+1, and the last point of the
// range is always included when the range is non-empty).
func (s *Store) ReadingsDownsampled(from, to time.Time, maxPoints int) []voltage.Reading {
	filtered := s.Readings(&from, &to)
	return downsample(filtered, maxPoints)
}

func downsample(filtered []voltage.Reading, maxPoints int) []voltage.Reading {
	n := len(filtered)
	if n <= maxPoints || maxPoints <= 0 {
		return filtered
	}
	out := make([]voltage.Reading, 0, maxPoints+1)
	for i := 0; i < maxPoints; i++ {
		idx := i * n / maxPoints
		out = append(out, filtered[idx])
	}
	last := filtered[n-1]
	if !out[len(out)-1].Timestamp.Equal(last.Timestamp) {
		out = append(out, last)
	}
	return out
}

// Windows returns completed windows with window_start >= from (if set)
// and window_end <= to (if set).
func (s *Store) Windows(from, to *time.Time) []voltage.RmsWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.windows.snapshot()
	out := make([]voltage.RmsWindow, 0, len(all))
	for _, w := range all {
		if from != nil && w.WindowStart.Before(*from) {
			continue
		}
		if to != nil && w.WindowEnd.After(*to) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Anomalies applies the conjunctive filter to the anomaly buffer.
// From/To compare against StartedAt.
func (s *Store) Anomalies(f AnomalyFilter) []voltage.Anomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.anomalies.snapshot()
	out := make([]voltage.Anomaly, 0, len(all))
	for _, a := range all {
		if f.Kind != nil && a.Kind != *f.Kind {
			continue
		}
		if f.Phase != nil && a.Phase != *f.Phase {
			continue
		}
		if f.From != nil && a.StartedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && a.StartedAt.After(*f.To) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ActiveAnomalies returns one entry per currently non-idle sub-machine.
func (s *Store) ActiveAnomalies() []voltage.ActiveAnomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Active()
}

// WeeklyCompliance computes the week starting at the Monday 00:00 (in
// the store's configured Location) containing date. date defaults to
// now when nil.
func (s *Store) WeeklyCompliance(date *time.Time) voltage.WeeklyCompliance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref := s.cfg.Now()
	if date != nil {
		ref = *date
	}
	weekStart := voltage.WeekStart(ref.In(s.cfg.Location))
	weekEnd := weekStart.AddDate(0, 0, 7)

	all := s.windows.snapshot()
	var inWeek []voltage.RmsWindow
	for _, w := range all {
		if !w.WindowStart.Before(weekStart) && w.WindowStart.Before(weekEnd) {
			inWeek = append(inWeek, w)
		}
	}
	return voltage.EvaluateCompliance(s.vcfg, inWeek, weekStart)
}

// Stats reports the store's current buffer sizes and live anomaly
// count.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalReadings:   s.readings.len(),
		TotalWindows:    s.windows.len(),
		TotalAnomalies:  s.anomalies.len(),
		ActiveAnomalies: len(s.tracker.Active()),
	}
}

// Reset empties every buffer and clears the live tracker/aggregator
// state. For tests only — never called from a running server.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings.reset()
	s.windows.reset()
	s.anomalies.reset()
	s.tracker.Reset()
	s.agg = voltage.NewWindowAggregator(s.vcfg, s.log)
	s.latest = nil
	s.totalPushes = 0
}
