package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/greenmeter/internal/config"
	"github.com/jgoulah/greenmeter/pkg/models"
)

const publishTimeout = 5 * time.Second

// Publisher mirrors readings to an MQTT broker and can accept readings from it
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// New connects to the broker described by cfg
func New(cfg *config.Config) (*Publisher, error) {
	if cfg.MQTT.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.MQTT.Broker))
	opts.SetClientID(cfg.GetMQTTClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
	}
	if cfg.MQTT.Password != "" {
		opts.SetPassword(cfg.MQTT.Password)
	}

	// Create and connect client
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, cfg.GetMQTTTopicPrefix()), nil
}

// NewWithClient wraps an already configured client
func NewWithClient(client mqtt.Client, topicPrefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: topicPrefix}
}

// ReadingsTopic is where accepted readings are mirrored
func (p *Publisher) ReadingsTopic() string {
	return p.topicPrefix + "/readings"
}

// IngestTopic is where sensors may publish readings instead of using HTTP
func (p *Publisher) IngestTopic() string {
	return p.topicPrefix + "/ingest"
}

// SaveReading publishes a reading as JSON. It lets the publisher act as an archive sink.
func (p *Publisher) SaveReading(r models.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}

	token := p.client.Publish(p.ReadingsTopic(), 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", p.ReadingsTopic())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.ReadingsTopic(), err)
	}
	return nil
}

// SubscribeReadings delivers every payload published on the ingest topic to fn
func (p *Publisher) SubscribeReadings(fn func(payload []byte)) error {
	token := p.client.Subscribe(p.IngestTopic(), 1, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribing to %s: timed out", p.IngestTopic())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %s: %w", p.IngestTopic(), err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
