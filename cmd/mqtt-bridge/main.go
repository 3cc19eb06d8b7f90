// Standalone MQTT-to-HTTP ingest bridge: subscribes to the topic
// metersim (or a real meter gateway) publishes three-phase voltage
// readings to, and forwards each one as a POST to the query server's
// /api/voltage/ingest.
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
	log.Info("mqtt_bridge_config", "broker", cfg.MQTTBrokerURL, "topic", cfg.MQTTTopic, "target", ingestURL)

	sink := ingest.NewHTTPSink(ingestURL)
	consumer, err := ingest.NewMQTTConsumer(ingest.MQTTConsumerConfig{
		BrokerURL: cfg.MQTTBrokerURL,
		Topic:     cfg.MQTTTopic,
		ClientID:  cfg.MQTTClientID + "-bridge",
	}, sink, log)
	if err != nil {
		log.Error("mqtt_bridge_connect_failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("mqtt_bridge_stopping")
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("mqtt_bridge_error", "error", err.Error())
	}
	log.Info("mqtt_bridge_stopped")
}
