package forwarder

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jd3nn1s/racerbridge"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	mqttConnectTimeout = 10 * time.Second
	// ms to wait for in flight messages on disconnect
	mqttQuiesce = 250
)

// MQTTForwarder publishes every record as JSON to
// <topic prefix>/<vehicle>/telemetry.
type MQTTForwarder struct {
	client mqtt.Client
	topic  string
}

func Topic(prefix, vehicle string) string {
	return fmt.Sprintf("%s/%s/telemetry", prefix, vehicle)
}

func NewMQTTForwarder(config racerbridge.MQTTConfig, vehicle string) (*MQTTForwarder, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.WithField("err", err).Warn("mqtt connection lost")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.WithField("broker", config.Broker).Info("connected to mqtt broker")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.Errorf("timed out connecting to mqtt broker %s", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "unable to connect to mqtt broker %s", config.Broker)
	}
	return newMQTTForwarder(client, Topic(config.TopicPrefix, vehicle)), nil
}

func newMQTTForwarder(client mqtt.Client, topic string) *MQTTForwarder {
	return &MQTTForwarder{
		client: client,
		topic:  topic,
	}
}

// Forward doesn't wait for the broker to acknowledge the message.
func (m *MQTTForwarder) Forward(telemetry *racerbridge.TelemetryRecord) error {
	if !m.client.IsConnected() {
		return errors.New("mqtt client not connected")
	}
	payload, err := json.Marshal(telemetry)
	if err != nil {
		return errors.Wrap(err, "unable to marshal telemetry")
	}
	m.client.Publish(m.topic, 0, false, payload)
	return nil
}

func (m *MQTTForwarder) Close() error {
	m.client.Disconnect(mqttQuiesce)
	return nil
}
