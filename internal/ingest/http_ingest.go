package ingest

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nrg-champ/voltage-quality/internal/store"
)

// HTTPHandler decodes readings POSTed to /api/voltage/ingest and pushes
// them into the store. It accepts three bodies: a single JSON object, a
// JSON array of objects, or newline-delimited JSON — the same three
// shapes a meter gateway or a kcat sidecar might produce.
type HTTPHandler struct {
	store *store.Store
	log   *slog.Logger
}

// NewHTTPHandler builds an ingest handler backed by st.
func NewHTTPHandler(st *store.Store, log *slog.Logger) *HTTPHandler {
	return &HTTPHandler{store: st, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	br := bufio.NewReader(r.Body)
	first, err := br.Peek(1)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var wires []wireReading
	switch first[0] {
	case '[':
		if err := json.NewDecoder(br).Decode(&wires); err != nil {
			h.badRequest(w, err)
			return
		}
	case '{':
		// Could be one object, or the first of several NDJSON lines.
		dec := json.NewDecoder(br)
		for {
			var wr wireReading
			if err := dec.Decode(&wr); err != nil {
				break
			}
			wires = append(wires, wr)
		}
	default:
		h.badRequest(w, nil)
		return
	}

	accepted, rejected := 0, 0
	for _, wr := range wires {
		reading, err := wr.toReading()
		if err != nil {
			rejected++
			h.log.Warn("ingest_reading_rejected", "error", err.Error())
			continue
		}
		h.store.Push(reading)
		accepted++
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": accepted, "rejected": rejected})
}

func (h *HTTPHandler) badRequest(w http.ResponseWriter, err error) {
	if err != nil {
		h.log.Warn("ingest_decode_failed", "error", err.Error())
	}
	w.WriteHeader(http.StatusBadRequest)
}
