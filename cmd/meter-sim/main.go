// Three-phase smart-meter simulator: publishes synthetic voltage
// readings to an MQTT broker at a fixed cadence, standing in for the
// physical meter/gateway fleet this system's analytics pipeline
// otherwise treats as an external, out-of-scope data source.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/nrg-champ/voltage-quality/internal/config"
	"github.com/nrg-champ/voltage-quality/internal/logging"
	"github.com/nrg-champ/voltage-quality/internal/metersim"
)

func main() {
	cfg := appconfig.Load()
	log, logFile := logging.Init(cfg.LogDir, slog.LevelInfo)
	if logFile != nil {
		defer logFile.Close()
	}

	sim, err := metersim.New(metersim.Config{
		MeterID:   cfg.MQTTClientID,
		BrokerURL: cfg.MQTTBrokerURL,
		Topic:     cfg.MQTTTopic,
		Interval:  cfg.PollInterval,
	}, log)
	if err != nil {
		log.Error("meter_sim_connect_failed", "error", err.Error())
		os.Exit(1)
	}
	sim.Start()
	log.Info("meter_sim_started", "broker", cfg.MQTTBrokerURL, "topic", cfg.MQTTTopic, "interval", cfg.PollInterval.String())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	sim.Stop()
	log.Info("meter_sim_stopped")
}
