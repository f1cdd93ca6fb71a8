package forwarder

import (
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jd3nn1s/racerbridge"
	"github.com/stretchr/testify/assert"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// embeds the interface so only the methods used need implementing
type mqttClientStub struct {
	mqtt.Client
	connected    bool
	disconnected bool
	published    []published
}

func (c *mqttClientStub) IsConnected() bool {
	return c.connected
}

func (c *mqttClientStub) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  payload.([]byte),
	})
	return nil
}

func (c *mqttClientStub) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "racerbridge/pro/telemetry", Topic("racerbridge", "pro"))
}

func TestMQTTForwarder(t *testing.T) {
	client := &mqttClientStub{connected: true}
	fwd := newMQTTForwarder(client, Topic("racerbridge", "standard"))

	assert.NoError(t, fwd.Forward(&racerbridge.TelemetryRecord{Direction: racerbridge.Forward}))
	assert.Len(t, client.published, 1)
	assert.Equal(t, "racerbridge/standard/telemetry", client.published[0].topic)
	assert.False(t, client.published[0].retained)
	assert.Contains(t, string(client.published[0].payload), `"direction":"F"`)

	client.connected = false
	assert.Error(t, fwd.Forward(&racerbridge.TelemetryRecord{}))
	assert.Len(t, client.published, 1)

	assert.NoError(t, fwd.Close())
	assert.True(t, client.disconnected)
}
