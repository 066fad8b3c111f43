// Package config loads the safetycam configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ayusman/safetycam/internal/alarm"
	"github.com/ayusman/safetycam/internal/capture"
	"github.com/ayusman/safetycam/internal/detector"
	"github.com/ayusman/safetycam/internal/gesture"
	"github.com/ayusman/safetycam/internal/sink"
)

// DefaultDir is the directory under the user's home holding config and data.
const DefaultDir = ".safetycam"

// MQTT holds broker settings. Durations are in seconds.
type MQTT struct {
	Enabled          bool   `json:"enabled"`
	Broker           string `json:"broker"`
	ClientID         string `json:"client_id"`
	KeepAliveSeconds int    `json:"keepalive_seconds"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	QoS              byte   `json:"qos"`
}

// Speech holds the announcement command.
type Speech struct {
	Enabled bool     `json:"enabled"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Config is the full runtime configuration. Fields may be loaded from a
// JSON file and overridden by command-line flags.
type Config struct {
	Session  gesture.Config  `json:"session"`
	Detector detector.Config `json:"detector"`
	Capture  capture.Source  `json:"capture"`
	Alert    alarm.Alert     `json:"alert"`
	MQTT     MQTT            `json:"mqtt"`
	Speech   Speech          `json:"speech"`

	// DispatchTimeoutSeconds bounds each publish or announce.
	DispatchTimeoutSeconds int `json:"dispatch_timeout_seconds"`
	QueueSize              int `json:"queue_size"`

	StorePath  string `json:"store_path"`
	ServerAddr string `json:"server_addr"`
	Display    bool   `json:"display"`
	Tray       bool   `json:"tray"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	mqtt := sink.DefaultMQTTConfig()
	return &Config{
		Session:  gesture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Capture:  capture.DefaultSource(),
		Alert:    alarm.DefaultAlert(),
		MQTT: MQTT{
			Enabled:          true,
			Broker:           mqtt.Broker,
			ClientID:         mqtt.ClientID,
			KeepAliveSeconds: int(mqtt.KeepAlive / time.Second),
			TimeoutSeconds:   int(mqtt.ConnectTimeout / time.Second),
			QoS:              mqtt.QoS,
		},
		Speech: Speech{
			Enabled: true,
			Command: sink.DefaultSpeechCommand,
		},
		DispatchTimeoutSeconds: 10,
		QueueSize:              sink.DefaultQueueSize,
		StorePath:              "",
		ServerAddr:             ":8080",
		Display:                true,
		Tray:                   false,
	}
}

// DefaultPath returns ~/.safetycam/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, DefaultDir, "config.json"), nil
}

// Validate normalizes derived values and rejects settings the session
// cannot run with.
func (c *Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if c.Detector.Iterations < 0 {
		c.Detector.Iterations = 0
	}
	if c.MQTT.KeepAliveSeconds <= 0 {
		c.MQTT.KeepAliveSeconds = 600
	}
	if c.MQTT.TimeoutSeconds <= 0 {
		c.MQTT.TimeoutSeconds = 10
	}
	if c.MQTT.QoS > 2 {
		return errors.Errorf("mqtt qos %d must be 0, 1 or 2", c.MQTT.QoS)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt is enabled but no broker is set")
	}
	if c.DispatchTimeoutSeconds <= 0 {
		c.DispatchTimeoutSeconds = 10
	}
	if c.QueueSize <= 0 {
		c.QueueSize = sink.DefaultQueueSize
	}
	if c.Speech.Command == "" {
		c.Speech.Command = sink.DefaultSpeechCommand
	}
	return nil
}

// MQTTConfig converts the mqtt section for the publisher.
func (c *Config) MQTTConfig() sink.MQTTConfig {
	return sink.MQTTConfig{
		Broker:         c.MQTT.Broker,
		ClientID:       c.MQTT.ClientID,
		KeepAlive:      time.Duration(c.MQTT.KeepAliveSeconds) * time.Second,
		ConnectTimeout: time.Duration(c.MQTT.TimeoutSeconds) * time.Second,
		QoS:            c.MQTT.QoS,
	}
}

// DispatchTimeout returns the per-delivery timeout.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

// Load reads configuration from the given JSON file path. Fields missing
// from the file keep their defaults. A missing file yields DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return cfg, errors.Wrapf(err, "decode config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format,
// creating the parent directory if needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create config %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}
