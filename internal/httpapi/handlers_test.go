package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/store"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

func testHandlers() (*Handlers, *store.Store) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(voltage.DefaultConfig(), store.Config{
		MaxReadings:  1000,
		MaxWindows:   1000,
		MaxAnomalies: 1000,
		Now:          time.Now,
		Location:     time.UTC,
	}, log)
	return &Handlers{Store: st, Log: log}, st
}

func TestLatestNoDataReturns503(t *testing.T) {
	h, _ := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/latest", nil)
	rec := httptest.NewRecorder()
	h.Latest(rec, req)
	if rec.Code != 503 {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "NO_DATA" {
		t.Fatalf("expected NO_DATA, got %v", body)
	}
}

func TestLatestReturnsMostRecentPush(t *testing.T) {
	h, st := testHandlers()
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	st.Push(voltage.Reading{Timestamp: base, V1: 230, V2: 230, V3: 230})

	req := httptest.NewRequest("GET", "/api/voltage/latest", nil)
	rec := httptest.NewRecorder()
	h.Latest(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	phases, ok := body["phases"].([]any)
	if !ok || len(phases) != 3 {
		t.Fatalf("expected 3 phases, got %v", body["phases"])
	}
}

func TestHistoryInvalidRangeReturns400(t *testing.T) {
	h, _ := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/history?from=2026-01-05T12:00:00Z&to=2026-01-05T10:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHistoryRawReturnsReadings(t *testing.T) {
	h, st := testHandlers()
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		st.Push(voltage.Reading{Timestamp: base.Add(time.Duration(i) * time.Second), V1: 230, V2: 230, V3: 230})
	}
	req := httptest.NewRequest("GET", "/api/voltage/history?from=2026-01-05T11:00:00Z&to=2026-01-05T13:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if int(body["count"].(float64)) != 5 {
		t.Fatalf("expected 5 readings, got %v", body["count"])
	}
}

func TestAnomaliesActiveEmptyByDefault(t *testing.T) {
	h, _ := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/anomalies/active", nil)
	rec := httptest.NewRecorder()
	h.ActiveAnomalies(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if int(body["count"].(float64)) != 0 {
		t.Fatalf("expected 0 active anomalies, got %v", body["count"])
	}
}

func TestAnomaliesInvalidTypeReturns400(t *testing.T) {
	h, _ := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/anomalies?type=not_a_kind", nil)
	rec := httptest.NewRecorder()
	h.Anomalies(rec, req)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSummaryReflectsHasData(t *testing.T) {
	h, st := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/summary", nil)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["has_data"] != false {
		t.Fatalf("expected has_data false, got %v", body["has_data"])
	}

	st.Push(voltage.Reading{Timestamp: time.Now(), V1: 230, V2: 230, V3: 230})
	rec = httptest.NewRecorder()
	h.Summary(rec, req)
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["has_data"] != true {
		t.Fatalf("expected has_data true after push, got %v", body["has_data"])
	}
}

func TestWeeklyComplianceIncludesEsoConstants(t *testing.T) {
	h, _ := testHandlers()
	req := httptest.NewRequest("GET", "/api/voltage/compliance/weekly", nil)
	rec := httptest.NewRecorder()
	h.WeeklyCompliance(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["eso_threshold_pct"] != 95.0 {
		t.Fatalf("expected eso_threshold_pct 95, got %v", body["eso_threshold_pct"])
	}
	if int(body["windows_per_week"].(float64)) != 1008 {
		t.Fatalf("expected 1008 windows per week, got %v", body["windows_per_week"])
	}
}
