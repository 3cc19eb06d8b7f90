// Query server for the voltage quality analytics pipeline: ingests
// three-phase readings over HTTP (and, via the companion
// ingest-bridge, Kafka), runs the RMS/anomaly/compliance pipeline on
// each one, and serves the query facade.
//
// Endpoints:
//
//	GET  /api/voltage/latest
//	GET  /api/voltage/history
//	GET  /api/voltage/anomalies
//	GET  /api/voltage/anomalies/active
//	GET  /api/voltage/compliance/weekly
//	GET  /api/voltage/summary
//	POST /api/voltage/ingest
//	GET  /health
//	GET  /metrics
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	appconfig "github.com/nrg-champ/voltage-quality/internal/config"
	"github.com/nrg-champ/voltage-quality/internal/httpapi"
	"github.com/nrg-champ/voltage-quality/internal/ingest"
	"github.com/nrg-champ/voltage-quality/internal/logging"
	"github.com/nrg-champ/voltage-quality/internal/metrics"
	"github.com/nrg-champ/voltage-quality/internal/store"
	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

func main() {
	cfg := appconfig.Load()
	log, logFile := logging.Init(cfg.LogDir, slog.LevelInfo)
	if logFile != nil {
		defer logFile.Close()
	}
	log.Info("config_loaded", "http_addr", cfg.HTTPAddr, "location", cfg.Location, "kafka_topic", cfg.KafkaIngestTopic)

	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		log.Warn("location_load_failed_falling_back_to_utc", "location", cfg.Location, "error", err.Error())
		loc = time.UTC
	}

	storeCfg := store.DefaultStoreConfig()
	storeCfg.Location = loc
	st := store.New(voltage.DefaultConfig(), storeCfg, log)

	m := metrics.New()
	st.SetMetrics(m)
	h := &httpapi.Handlers{Store: st, Log: log}
	ingestHandler := ingest.NewHTTPHandler(st, log)
	srv := httpapi.NewServer(cfg.HTTPAddr, log, h, ingestHandler, m)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http_server_error", "error", err.Error())
		}
	}()
	log.Info("voltage_quality_server_started")

	kafkaCtx, stopKafka := context.WithCancel(context.Background())
	defer stopKafka()
	if os.Getenv("KAFKA_EMBEDDED_CONSUMER") == "true" {
		consumer := ingest.NewKafkaConsumer(ingest.KafkaConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaIngestTopic,
			GroupID: cfg.KafkaGroupID,
		}, ingest.StoreSink{Store: st}, log)
		go func() {
			if err := consumer.Run(kafkaCtx); err != nil && kafkaCtx.Err() == nil {
				log.Error("embedded_kafka_consumer_error", "error", err.Error())
			}
		}()
		log.Info("embedded_kafka_consumer_started", "topic", cfg.KafkaIngestTopic)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopKafka()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown_error", "error", err.Error())
	}
	log.Info("voltage_quality_server_stopped")
}
