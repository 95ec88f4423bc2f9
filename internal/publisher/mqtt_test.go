package publisher

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jgoulah/greenmeter/internal/config"
	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakeClient implements the subset of mqtt.Client the publisher uses
type fakeClient struct {
	mqtt.Client
	published    map[string][][]byte
	handlers     map[string]mqtt.MessageHandler
	publishErr   error
	connected    bool
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		published: map[string][][]byte{},
		handlers:  map[string]mqtt.MessageHandler{},
		connected: true,
	}
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.published[topic] = append(c.published[topic], payload.([]byte))
	return &fakeToken{err: c.publishErr}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.handlers[topic] = cb
	return &fakeToken{}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.handlers[topic](c, &fakeMessage{topic: topic, payload: payload})
}

func TestSaveReadingPublishesJSON(t *testing.T) {
	client := newFakeClient()
	pub := NewWithClient(client, "home/power")

	require.NoError(t, pub.SaveReading(models.Reading{Timestamp: "2026-10-17T12:00:00Z", Power: 720}))

	msgs := client.published["home/power/readings"]
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"timestamp":"2026-10-17T12:00:00Z","power":720}`, string(msgs[0]))
}

func TestSaveReadingPropagatesBrokerError(t *testing.T) {
	client := newFakeClient()
	client.publishErr = errors.New("not connected")
	pub := NewWithClient(client, "greenmeter")

	err := pub.SaveReading(models.Reading{Timestamp: "2026-10-17T12:00:00Z", Power: 1})
	assert.ErrorContains(t, err, "not connected")
}

func TestSubscribeReadingsDeliversPayloads(t *testing.T) {
	client := newFakeClient()
	pub := NewWithClient(client, "greenmeter")

	var got [][]byte
	require.NoError(t, pub.SubscribeReadings(func(p []byte) { got = append(got, p) }))

	client.deliver("greenmeter/ingest", []byte(`{"timestamp":"2026-10-17T12:00:00Z","power":5}`))
	require.Len(t, got, 1)
	assert.Contains(t, string(got[0]), `"power":5`)
}

func TestClose(t *testing.T) {
	client := newFakeClient()
	NewWithClient(client, "greenmeter").Close()
	assert.True(t, client.disconnected)
}

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(&config.Config{MQTT: config.MQTTConfig{Enabled: true}})
	assert.ErrorContains(t, err, "broker address is required")
}
