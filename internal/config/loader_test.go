package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Hour, cfg.Igloohome.ScanInterval)
	assert.Equal(t, 10*time.Second, cfg.Igloohome.RequestTimeout)
	assert.Equal(t, "https://api.igloodeveloper.co/igloohome", cfg.Igloohome.BaseURL)
	assert.Equal(t, "homeassistant", cfg.MQTT.DiscoveryPrefix)
	assert.Equal(t, "igloohome", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 8081, cfg.API.Port)
	assert.False(t, cfg.ReadOnly)
}

func TestLoad_File(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dir := writeConfig(t, `igloohome:
  client_id: file-id
  client_secret: file-secret
  scan_interval: 15m
mqtt:
  broker: tcp://mosquitto:1883
  qos: 0
  topic_prefix: locks
api:
  port: 9000
read_only: true
`)

	cfg, err := Load(dir, logger)
	require.NoError(t, err)

	assert.Equal(t, "file-id", cfg.Igloohome.ClientID)
	assert.Equal(t, 15*time.Minute, cfg.Igloohome.ScanInterval)
	assert.Equal(t, 10*time.Second, cfg.Igloohome.RequestTimeout, "unset fields keep defaults")
	assert.Equal(t, "tcp://mosquitto:1883", cfg.MQTT.Broker)
	assert.Equal(t, 0, cfg.MQTT.QoS)
	assert.Equal(t, "locks", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "homeassistant", cfg.MQTT.DiscoveryPrefix)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.True(t, cfg.ReadOnly)
}

func TestLoad_MissingFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	cfg, err := Load(t.TempDir(), logger)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Igloohome.ScanInterval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dir := writeConfig(t, "igloohome: [not, a, map")

	_, err := Load(dir, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dir := writeConfig(t, `igloohome:
  client_id: file-id
  client_secret: file-secret
`)

	t.Setenv("IGLOOHOME_CLIENT_ID", "env-id")
	t.Setenv("READ_ONLY", "false")

	cfg, err := Load(dir, logger)
	require.NoError(t, err)
	assert.Equal(t, "env-id", cfg.Igloohome.ClientID)
	assert.Equal(t, "file-secret", cfg.Igloohome.ClientSecret)
	assert.False(t, cfg.ReadOnly)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"IGLOOHOME_CLIENT_ID":     "id",
		"IGLOOHOME_CLIENT_SECRET": "secret",
		"IGLOOHOME_SCOPES":        "igloohomeapi/lock-bridge-proxied-job, igloohomeapi/get-devices",
		"IGLOOHOME_SCAN_INTERVAL": "30m",
		"MQTT_BROKER":             "tcp://broker:1883",
		"MQTT_USERNAME":           "user",
		"MQTT_PASSWORD":           "pass",
		"HA_URL":                  "ws://ha:8123/api/websocket",
		"HA_TOKEN":                "token",
		"READ_ONLY":               "true",
		"API_PORT":                "9090",
		"MQTT_TOPIC_PREFIX":       "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.Igloohome.ClientID)
	assert.Equal(t, []string{"igloohomeapi/lock-bridge-proxied-job", "igloohomeapi/get-devices"}, cfg.Igloohome.Scopes)
	assert.Equal(t, 30*time.Minute, cfg.Igloohome.ScanInterval)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "igloohome", cfg.MQTT.TopicPrefix, "empty values are ignored")
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"IGLOOHOME_SCAN_INTERVAL": "hourly",
		"READ_ONLY":               "maybe",
		"API_PORT":                "eighty",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			err := Default().applyEnv(mapLookup(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Igloohome.ClientID = "id"
	cfg.Igloohome.ClientSecret = "secret"
	cfg.MQTT.Broker = "tcp://broker:1883"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		service bool
		wantErr string
	}{
		{"valid", func(c *Config) {}, true, ""},
		{"missing client id", func(c *Config) { c.Igloohome.ClientID = "" }, false, "client_id"},
		{"missing secret", func(c *Config) { c.Igloohome.ClientSecret = "" }, false, "client_secret"},
		{"zero scan interval", func(c *Config) { c.Igloohome.ScanInterval = 0 }, false, "scan_interval"},
		{"zero timeout", func(c *Config) { c.Igloohome.RequestTimeout = 0 }, false, "request_timeout"},
		{"broker not needed for cli", func(c *Config) { c.MQTT.Broker = "" }, false, ""},
		{"missing broker", func(c *Config) { c.MQTT.Broker = "" }, true, "broker"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, true, "qos"},
		{"ha url without token", func(c *Config) { c.HomeAssistant.URL = "ws://ha" }, true, "HA_TOKEN"},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, true, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			var err error
			if tt.service {
				err = cfg.ValidateService()
			} else {
				err = cfg.Validate()
			}

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.TopicPrefix = "locks"

	opts := cfg.IgloohomeOptions()
	assert.Equal(t, "id", opts.ClientID)
	assert.Equal(t, cfg.Igloohome.RequestTimeout, opts.Timeout)

	mq := cfg.MQTTOptions()
	assert.Equal(t, "tcp://broker:1883", mq.Broker)
	assert.Equal(t, byte(1), mq.QoS)
	assert.Equal(t, "locks/status", mq.StatusTopic)

	assert.Equal(t, "locks/lock_X/set", cfg.Topics().Command("lock_X"))
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_SampleConfig(t *testing.T) {
	for _, key := range []string{
		"IGLOOHOME_CLIENT_ID", "IGLOOHOME_CLIENT_SECRET", "IGLOOHOME_BASE_URL", "IGLOOHOME_TOKEN_URL",
		"IGLOOHOME_SCOPES", "IGLOOHOME_SCAN_INTERVAL", "MQTT_BROKER", "API_PORT", "READ_ONLY",
	} {
		t.Setenv(key, "")
	}
	logger, _ := zap.NewDevelopment()

	cfg, err := Load(filepath.Join("..", "..", "configs"), logger)
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, defaults.Igloohome, cfg.Igloohome)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, defaults.MQTT.QoS, cfg.MQTT.QoS)
	assert.Equal(t, defaults.API, cfg.API)
	assert.False(t, cfg.NotificationsEnabled())
	assert.False(t, cfg.ReadOnly)
}
