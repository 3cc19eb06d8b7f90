// Standalone Kafka-to-HTTP ingest bridge: consumes wire-format
// readings off a Kafka topic and forwards each one as a POST to the
// query server's /api/voltage/ingest, the same sidecar split the
// reference aggregator documents for its own Kafka ingestion.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/nrg-champ/voltage-quality/internal/config"
	"github.com/nrg-champ/voltage-quality/internal/ingest"
	"github.com/nrg-champ/voltage-quality/internal/logging"
)

func main() {
	cfg := appconfig.Load()
	log, logFile := logging.Init(cfg.LogDir, slog.LevelInfo)
	if logFile != nil {
		defer logFile.Close()
	}

	ingestURL := os.Getenv("INGEST_URL")
	if ingestURL == "" {
		ingestURL = "http://localhost" + cfg.HTTPAddr + "/api/voltage/ingest"
	}
	log.Info("ingest_bridge_config", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaIngestTopic, "group", cfg.KafkaGroupID, "target", ingestURL)

	sink := ingest.NewHTTPSink(ingestURL)
	consumer := ingest.NewKafkaConsumer(ingest.KafkaConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaIngestTopic,
		GroupID: cfg.KafkaGroupID,
	}, sink, log)

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("ingest_bridge_stopping")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("ingest_bridge_error", "error", err.Error())
	}
	log.Info("ingest_bridge_stopped")
}
