package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/nrg-champ/voltage-quality/internal/circuitbreaker"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

// sink is whatever a decoded reading is handed off to: the state
// store directly when the bridge runs embedded in the query server,
// or an HTTP forwarder when it runs as the standalone ingest-bridge
// sidecar (the reference family's own aggregator documents exactly
// this split: "Kafka ingestion is handled by a sidecar that POSTs to
// /ingest").
type sink interface {
	Push(voltage.Reading) error
}

// KafkaConsumerConfig configures the bridge between a Kafka topic of
// wire-format readings and the reading sink.
type KafkaConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	MaxFailures  int
	ResetTimeout time.Duration
}

// KafkaConsumer reads readings off a Kafka topic and hands them to a
// sink, guarded by a circuit breaker so a broker outage degrades to
// fast-failing fetches instead of busy-looping against a dead broker.
type KafkaConsumer struct {
	reader  *kafka.Reader
	sink    sink
	log     *slog.Logger
	breaker *circuitbreaker.Breaker
}

// NewKafkaConsumer builds a KafkaConsumer. Call Run to start consuming;
// Run blocks until ctx is cancelled.
func NewKafkaConsumer(cfg KafkaConsumerConfig, sk sink, log *slog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	resetTimeout := cfg.ResetTimeout
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	return &KafkaConsumer{
		reader: reader,
		sink:   sk,
		log:    log,
		breaker: circuitbreaker.New("kafka_ingest", circuitbreaker.Config{
			MaxFailures:  maxFailures,
			ResetTimeout: resetTimeout,
		}, log),
	}
}

// Run consumes messages until ctx is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka_consumer_start", "topic", c.reader.Config().Topic)
	defer c.reader.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var msg kafka.Message
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				return err
			}
			msg = m
			return nil
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			time.Sleep(time.Second)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("kafka_fetch_failed", "error", err.Error())
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var wr wireReading
	if err := json.Unmarshal(msg.Value, &wr); err != nil {
		c.log.Warn("kafka_invalid_json", "offset", msg.Offset, "partition", msg.Partition, "error", err.Error())
		c.commit(ctx, msg)
		return
	}
	reading, err := wr.toReading()
	if err != nil {
		c.log.Warn("kafka_reading_rejected", "offset", msg.Offset, "partition", msg.Partition, "error", err.Error())
		c.commit(ctx, msg)
		return
	}
	if err := c.sink.Push(reading); err != nil {
		c.log.Error("kafka_sink_push_failed", "offset", msg.Offset, "error", err.Error())
		// Left uncommitted, but the reader does not fetch it again, and
		// the next successful commit moves the group offset past it.
		return
	}
	c.commit(ctx, msg)
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.log.Warn("kafka_commit_failed", "offset", msg.Offset, "error", err.Error())
	}
}
