// Package config loads ambient, non-regulatory settings from the
// environment, the same getEnv/getEnvInt idiom used across the
// reference family's services (aggregator's props.go, mape's
// internal/config). The voltage threshold constants (C1) are
// deliberately not here — see voltage.DefaultConfig.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds the query server's runtime settings.
type AppConfig struct {
	HTTPAddr     string
	LogDir       string
	PollInterval time.Duration
	Location     string // IANA location name for weekly compliance boundaries

	KafkaBrokers     []string
	KafkaIngestTopic string
	KafkaGroupID     string

	MQTTBrokerURL string
	MQTTTopic     string
	MQTTClientID  string
}

// Load reads AppConfig from the environment, applying the defaults
// the reference family uses for an unset value.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		LogDir:       getEnv("LOG_DIR", ""),
		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)) * time.Second,
		Location:     getEnv("COMPLIANCE_LOCATION", "Europe/Vilnius"),

		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaIngestTopic: getEnv("KAFKA_INGEST_TOPIC", "voltage.readings"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "voltage-quality-ingest"),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTTopic:     getEnv("MQTT_TOPIC", "meters/voltage"),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "voltage-quality-bridge"),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitAndTrim(csv, sep string) []string {
	parts := strings.Split(csv, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
