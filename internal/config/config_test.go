package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/safetycam/internal/gesture"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, gesture.DefaultConfig(), cfg.Session)
	assert.Equal(t, "tcp://test.mosquitto.org:1883", cfg.MQTT.Broker)
	assert.Equal(t, 600, cfg.MQTT.KeepAliveSeconds)
	assert.Equal(t, 1000, cfg.Capture.Width)
	assert.Equal(t, "espeak", cfg.Speech.Command)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"session": {"buffer_capacity": 32}, "capture": {"video_path": "clip.mp4"}, "mqtt": {"enabled": false}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Session.BufferCapacity)
	assert.Equal(t, gesture.DefaultMinPresentPoints, cfg.Session.MinPresentPoints)
	assert.Equal(t, "clip.mp4", cfg.Capture.VideoPath)
	assert.True(t, cfg.Capture.IsFile())
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://test.mosquitto.org:1883", cfg.MQTT.Broker)
}

func TestLoad_InvalidSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session": {"buffer_capacity": 0}}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, gesture.ErrInvalidConfig)
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session":`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bufer": 10}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Session.BufferCapacity = 48
	cfg.Alert.Topic = "home/alarm"
	cfg.Display = false

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Normalizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.KeepAliveSeconds = 0
	cfg.DispatchTimeoutSeconds = -1
	cfg.QueueSize = 0
	cfg.Speech.Command = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 600, cfg.MQTT.KeepAliveSeconds)
	assert.Equal(t, 10*time.Second, cfg.DispatchTimeout())
	assert.Equal(t, 16, cfg.QueueSize)
	assert.Equal(t, "espeak", cfg.Speech.Command)
}

func TestValidate_Rejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.QoS = 3
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MQTT.Broker = ""
	assert.Error(t, cfg.Validate())

	cfg.MQTT.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestMQTTConfig(t *testing.T) {
	cfg := DefaultConfig()
	mc := cfg.MQTTConfig()

	assert.Equal(t, cfg.MQTT.Broker, mc.Broker)
	assert.Equal(t, 600*time.Second, mc.KeepAlive)
	assert.Equal(t, 10*time.Second, mc.ConnectTimeout)
}
