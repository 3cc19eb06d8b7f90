// Package metersim simulates a three-phase smart meter publishing
// voltage readings over MQTT, adapted from the reference family's
// device/internal simulator (a single-sensor temperature/humidity
// publisher) to the three-phase voltage wire shape this system
// ingests instead.
package metersim

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// reading is the wire shape published to the broker; it mirrors
// ingest.wireReading's field names so the HTTP/Kafka bridges and this
// simulator agree on the wire format without sharing an internal type.
type reading struct {
	Timestamp string  `json:"ts"`
	V1        float64 `json:"v1"`
	V2        float64 `json:"v2"`
	V3        float64 `json:"v3"`
}

// Simulator publishes synthetic three-phase voltage readings to an
// MQTT broker at a fixed interval.
type Simulator struct {
	meterID string
	client  mqtt.Client
	topic   string
	ticker  *time.Ticker
	quit    chan struct{}
	log     *slog.Logger

	nominal    float64
	driftStdev float64
}

// Config tunes the simulator's output.
type Config struct {
	MeterID        string
	BrokerURL      string
	Topic          string
	Interval       time.Duration
	NominalVoltage float64
	DriftStdev     float64 // stdev of per-reading voltage noise, volts
}

// New connects to the broker and returns a ready-to-start Simulator.
func New(cfg Config, log *slog.Logger) (*Simulator, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.BrokerURL).SetClientID(cfg.MeterID)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	nominal := cfg.NominalVoltage
	if nominal == 0 {
		nominal = 230
	}
	stdev := cfg.DriftStdev
	if stdev == 0 {
		stdev = 1.5
	}
	return &Simulator{
		meterID:    cfg.MeterID,
		client:     c,
		topic:      cfg.Topic,
		ticker:     time.NewTicker(cfg.Interval),
		quit:       make(chan struct{}),
		log:        log,
		nominal:    nominal,
		driftStdev: stdev,
	}, nil
}

// Start begins publishing readings at the configured interval.
func (s *Simulator) Start() {
	go func() {
		for {
			select {
			case <-s.quit:
				return
			case t := <-s.ticker.C:
				r := reading{
					Timestamp: t.UTC().Format(time.RFC3339Nano),
					V1:        s.nextVoltage(),
					V2:        s.nextVoltage(),
					V3:        s.nextVoltage(),
				}
				payload, err := json.Marshal(r)
				if err != nil {
					s.log.Error("metersim_marshal_failed", "error", err.Error())
					continue
				}
				token := s.client.Publish(s.topic, 0, false, payload)
				token.Wait()
				if token.Error() != nil {
					s.log.Error("metersim_publish_failed", "error", token.Error().Error())
				}
			}
		}
	}()
}

func (s *Simulator) nextVoltage() float64 {
	return s.nominal + rand.NormFloat64()*s.driftStdev
}

// Stop halts publishing and disconnects from the broker.
func (s *Simulator) Stop() {
	close(s.quit)
	s.ticker.Stop()
	s.client.Disconnect(250)
}
