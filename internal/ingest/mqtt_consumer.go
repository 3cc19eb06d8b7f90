package ingest

import (
	"context"
	"encoding/json"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConsumerConfig configures the bridge between an MQTT topic of
// wire-format readings (as published by metersim) and a sink.
type MQTTConsumerConfig struct {
	BrokerURL string
	Topic     string
	ClientID  string
}

// MQTTConsumer subscribes to a topic and forwards every decoded
// reading to a sink. Unlike the Kafka bridge there is no offset to
// commit — MQTT delivery semantics here are at-most-once (QoS 0),
// matching metersim's publish call.
type MQTTConsumer struct {
	client mqtt.Client
	topic  string
	sink   sink
	log    *slog.Logger
}

// NewMQTTConsumer connects to the broker and subscribes to cfg.Topic,
// forwarding every decoded reading to sk.
func NewMQTTConsumer(cfg MQTTConsumerConfig, sk sink, log *slog.Logger) (*MQTTConsumer, error) {
	c := &MQTTConsumer{topic: cfg.Topic, sink: sk, log: log}

	opts := mqtt.NewClientOptions().AddBroker(cfg.BrokerURL).SetClientID(cfg.ClientID)
	opts.SetDefaultPublishHandler(c.handleMessage)
	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return c, nil
}

// Run subscribes and blocks until ctx is cancelled.
func (c *MQTTConsumer) Run(ctx context.Context) error {
	token := c.client.Subscribe(c.topic, 0, nil)
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	c.log.Info("mqtt_consumer_subscribed", "topic", c.topic)

	<-ctx.Done()
	c.client.Unsubscribe(c.topic)
	c.client.Disconnect(250)
	return ctx.Err()
}

func (c *MQTTConsumer) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var wr wireReading
	if err := json.Unmarshal(msg.Payload(), &wr); err != nil {
		c.log.Warn("mqtt_invalid_json", "topic", msg.Topic(), "error", err.Error())
		return
	}
	reading, err := wr.toReading()
	if err != nil {
		c.log.Warn("mqtt_reading_rejected", "topic", msg.Topic(), "error", err.Error())
		return
	}
	if err := c.sink.Push(reading); err != nil {
		c.log.Error("mqtt_sink_push_failed", "error", err.Error())
	}
}
