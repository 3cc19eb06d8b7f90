package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/store"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

const (
	defaultHistoryPoints = 500
	maxHistoryPoints     = 5000
	defaultAnomalyLimit  = 100
	maxAnomalyLimit      = 1000
)

type bounds struct {
	NominalVoltage float64 `json:"nominal_voltage"`
	VoltageMin     float64 `json:"voltage_min"`
	VoltageMax     float64 `json:"voltage_max"`
}

func boundsOf(cfg voltage.Config) bounds {
	return bounds{
		NominalVoltage: cfg.NominalVoltage1Ph,
		VoltageMin:     cfg.VoltageMin1Ph,
		VoltageMax:     cfg.VoltageMax1Ph,
	}
}

// Latest serves GET /api/voltage/latest.
func (h *Handlers) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	reading, ok := h.Store.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "NO_DATA")
		return
	}
	cfg := h.Store.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp": reading.Timestamp.UTC().Format(time.RFC3339),
		"phases":    voltage.AnalyzeReading(cfg, reading),
		"bounds":    boundsOf(cfg),
	})
}

// History serves GET /api/voltage/history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	q := r.URL.Query()
	from, to := parseFromTo(q)
	if !from.Before(to) {
		writeError(w, http.StatusBadRequest, "INVALID_RANGE")
		return
	}
	points := parseIntDefault(q.Get("points"), defaultHistoryPoints)
	if points <= 0 {
		points = defaultHistoryPoints
	}
	if points > maxHistoryPoints {
		points = maxHistoryPoints
	}
	interval := q.Get("interval")
	if interval != "10min" {
		interval = "raw"
	}
	cfg := h.Store.Config()

	if interval == "10min" {
		windows := h.Store.Windows(&from, &to)
		writeJSON(w, http.StatusOK, map[string]any{
			"interval": interval,
			"from":     from.UTC().Format(time.RFC3339),
			"to":       to.UTC().Format(time.RFC3339),
			"count":    len(windows),
			"data":     windows,
			"bounds":   boundsOf(cfg),
		})
		return
	}

	readings := h.Store.ReadingsDownsampled(from, to, points)
	writeJSON(w, http.StatusOK, map[string]any{
		"interval": interval,
		"from":     from.UTC().Format(time.RFC3339),
		"to":       to.UTC().Format(time.RFC3339),
		"count":    len(readings),
		"data":     readingRows(readings),
		"bounds":   boundsOf(cfg),
	})
}

func readingRows(readings []voltage.Reading) []map[string]any {
	rows := make([]map[string]any, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, map[string]any{
			"timestamp":  r.Timestamp.UTC().Format(time.RFC3339),
			"voltage_l1": r.V1,
			"voltage_l2": r.V2,
			"voltage_l3": r.V3,
		})
	}
	return rows
}

// Anomalies serves GET /api/voltage/anomalies. Results are not
// deduplicated: a deviation episode appears as both its opening and its
// closing entry, which share (phase, started_at).
func (h *Handlers) Anomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	q := r.URL.Query()
	filter := store.AnomalyFilter{}

	if typeStr := q.Get("type"); typeStr != "" {
		kind, ok := parseAnomalyKind(typeStr)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE")
			return
		}
		filter.Kind = &kind
	}
	if phaseStr := q.Get("phase"); phaseStr != "" {
		phase, ok := voltage.ParsePhase(phaseStr)
		if !ok {
			writeError(w, http.StatusBadRequest, "INVALID_RANGE")
			return
		}
		filter.Phase = &phase
	}
	if fromStr := q.Get("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &t
		}
	}
	if toStr := q.Get("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &t
		}
	}

	limit := parseIntDefault(q.Get("limit"), defaultAnomalyLimit)
	if limit <= 0 {
		limit = defaultAnomalyLimit
	}
	if limit > maxAnomalyLimit {
		limit = maxAnomalyLimit
	}

	anomalies := h.Store.Anomalies(filter)
	sort.Slice(anomalies, func(i, j int) bool {
		return anomalies[i].StartedAt.After(anomalies[j].StartedAt)
	})
	if len(anomalies) > limit {
		anomalies = anomalies[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(anomalies),
		"data":  anomalies,
	})
}

func parseAnomalyKind(s string) (voltage.AnomalyKind, bool) {
	switch strings.ToLower(s) {
	case "long_interruption":
		return voltage.LongInterruption, true
	case "short_interruption":
		return voltage.ShortInterruption, true
	case "voltage_deviation":
		return voltage.VoltageDeviation, true
	default:
		return 0, false
	}
}

// ActiveAnomalies serves GET /api/voltage/anomalies/active.
func (h *Handlers) ActiveAnomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	active := h.Store.ActiveAnomalies()
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(active),
		"data":  active,
	})
}

// WeeklyCompliance serves GET /api/voltage/compliance/weekly.
func (h *Handlers) WeeklyCompliance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	var date *time.Time
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			date = &t
		}
	}
	wc := h.Store.WeeklyCompliance(date)
	cfg := h.Store.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"week_start":              wc.WeekStart.UTC().Format(time.RFC3339),
		"week_end":                wc.WeekEnd.UTC().Format(time.RFC3339),
		"total_windows":           wc.TotalWindows,
		"compliant_windows_l1":    wc.CompliantWindowsL1,
		"compliant_windows_l2":    wc.CompliantWindowsL2,
		"compliant_windows_l3":    wc.CompliantWindowsL3,
		"compliance_pct_l1":       wc.CompliancePctL1,
		"compliance_pct_l2":       wc.CompliancePctL2,
		"compliance_pct_l3":       wc.CompliancePctL3,
		"overall_compliant":       wc.OverallCompliant,
		"eso_threshold_pct":       cfg.WeeklyCompliancePct,
		"window_duration_minutes": cfg.WindowSeconds / 60,
		"windows_per_week":        windowsPerWeek(cfg.WindowSeconds),
	})
}

func windowsPerWeek(windowSeconds float64) int {
	const secondsPerWeek = 7 * 24 * 60 * 60
	return int(secondsPerWeek / windowSeconds)
}

// Summary serves GET /api/voltage/summary.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}
	stats := h.Store.Stats()
	cfg := h.Store.Config()
	reading, hasData := h.Store.Latest()
	wc := h.Store.WeeklyCompliance(nil)

	resp := map[string]any{
		"has_data": hasData,
		"stats":    stats,
		"weekly_compliance": map[string]any{
			"pct_l1":            wc.CompliancePctL1,
			"pct_l2":            wc.CompliancePctL2,
			"pct_l3":            wc.CompliancePctL3,
			"overall_compliant": wc.OverallCompliant,
		},
		"bounds": boundsOf(cfg),
	}
	if hasData {
		resp["latest_timestamp"] = reading.Timestamp.UTC().Format(time.RFC3339)
	} else {
		resp["latest_timestamp"] = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health serves GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "ts": time.Now().UTC().Format(time.RFC3339)})
}

func parseFromTo(q map[string][]string) (from, to time.Time) {
	get := func(key string) string {
		vs := q[key]
		if len(vs) == 0 {
			return ""
		}
		return vs[0]
	}
	to = time.Now().UTC()
	if v := get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}
	from = to.Add(-24 * time.Hour)
	if v := get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	return from, to
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
