// internal/mirror/mqtt/publisher.go
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/drone-streamer/internal/telemetry"
)

// Config is the minimal broker config.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Retained bool
	Timeout  time.Duration
}

// Publisher sends status records as JSON to one topic.
type Publisher struct {
	client  paho.Client
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
}

// New connects to the broker (fail fast at startup).
func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mirror mqtt: broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mirror mqtt: topic required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mirror mqtt: connect %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mirror mqtt: connect %s: %w", cfg.Broker, err)
	}

	return newPublisher(client, cfg), nil
}

func newPublisher(client paho.Client, cfg Config) *Publisher {
	return &Publisher{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		retain:  cfg.Retained,
		timeout: cfg.Timeout,
	}
}

func (p *Publisher) Name() string { return "mqtt" }

// Publish marshals r and waits for the publish token.
func (p *Publisher) Publish(r telemetry.StatusRecord) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("mirror mqtt: marshal: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mirror mqtt: publish %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mirror mqtt: publish %s: %w", p.topic, err)
	}
	return nil
}

// Close disconnects, allowing 250ms for in-flight work.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
