package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/store"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

// StoreSink adapts a *store.Store to the sink interface for a Kafka
// bridge running embedded in the query server.
type StoreSink struct {
	Store *store.Store
}

// Push satisfies sink.
func (s StoreSink) Push(r voltage.Reading) error {
	s.Store.Push(r)
	return nil
}

// HTTPSink forwards each reading as a POST to a remote query server's
// ingest endpoint, for a Kafka bridge running as a standalone sidecar
// process that does not share memory with the server.
type HTTPSink struct {
	URL    string
	Client *http.Client
}

// NewHTTPSink builds an HTTPSink with a bounded-timeout client.
func NewHTTPSink(url string) HTTPSink {
	return HTTPSink{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

// Push satisfies sink.
func (s HTTPSink) Push(r voltage.Reading) error {
	payload := wireReading{
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		V1:        r.V1,
		V2:        r.V2,
		V3:        r.V3,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := s.Client.Post(s.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ingest endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
