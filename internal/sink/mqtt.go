package sink

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Broker         string        `json:"broker"`
	ClientID       string        `json:"client_id"`
	KeepAlive      time.Duration `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	QoS            byte          `json:"qos"`
}

// DefaultMQTTConfig returns the public test broker settings.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://test.mosquitto.org:1883",
		ClientID:       "safetycam",
		KeepAlive:      600 * time.Second,
		ConnectTimeout: 10 * time.Second,
		QoS:            0,
	}
}

// publishClient is the part of mqtt.Client used for publishing.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes alert payloads to an MQTT broker.
type MQTTPublisher struct {
	client publishClient
	qos    byte
}

// NewMQTTPublisher connects to the configured broker. The client reconnects
// on its own after the first successful connection.
func NewMQTTPublisher(config MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetKeepAlive(config.KeepAlive).
		SetConnectTimeout(config.ConnectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(config.ConnectTimeout) {
		return nil, errors.Errorf("connect to %s timed out after %s", config.Broker, config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect to %s", config.Broker)
	}

	return &MQTTPublisher{client: client, qos: config.QoS}, nil
}

// Publish sends payload to topic and waits for the broker to accept it or
// for ctx to expire.
func (p *MQTTPublisher) Publish(ctx context.Context, topic, payload string) error {
	token := p.client.Publish(topic, p.qos, false, payload)

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return errors.Wrapf(err, "publish to %s", topic)
		}
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "publish to %s", topic)
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
