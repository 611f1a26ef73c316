// Package config loads bridge settings from igloohome.yaml in the config
// directory, with environment variables taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"igloobridge/internal/igloohome"
	"igloobridge/internal/lock"
	"igloobridge/internal/mqtt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileName is the optional config file looked up in the config directory
const FileName = "igloohome.yaml"

const DefaultAPIPort = 8081

// IgloohomeConfig holds cloud API settings
type IgloohomeConfig struct {
	ClientID       string        `yaml:"client_id"`
	ClientSecret   string        `yaml:"client_secret"`
	BaseURL        string        `yaml:"base_url"`
	TokenURL       string        `yaml:"token_url"`
	Scopes         []string      `yaml:"scopes"`
	ScanInterval   time.Duration `yaml:"scan_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// MQTTConfig holds broker and discovery settings
type MQTTConfig struct {
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	QoS             int    `yaml:"qos"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	TopicPrefix     string `yaml:"topic_prefix"`
}

// HomeAssistantConfig enables failure notifications over the WebSocket API
type HomeAssistantConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type APIConfig struct {
	Port int `yaml:"port"`
}

// Config is the complete bridge configuration
type Config struct {
	Igloohome     IgloohomeConfig     `yaml:"igloohome"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	API           APIConfig           `yaml:"api"`
	ReadOnly      bool                `yaml:"read_only"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Igloohome: IgloohomeConfig{
			BaseURL:        igloohome.DefaultBaseURL,
			TokenURL:       igloohome.DefaultTokenURL,
			ScanInterval:   lock.DefaultScanInterval,
			RequestTimeout: igloohome.DefaultTimeout,
		},
		MQTT: MQTTConfig{
			QoS:             1,
			DiscoveryPrefix: mqtt.DefaultDiscoveryPrefix,
			TopicPrefix:     mqtt.DefaultTopicPrefix,
		},
		API: APIConfig{Port: DefaultAPIPort},
	}
}

// Load reads configDir/igloohome.yaml if it exists, then applies
// environment overrides
func Load(configDir string, logger *zap.Logger) (*Config, error) {
	cfg := Default()

	path := filepath.Join(configDir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("No config file, using defaults and environment", zap.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		logger.Info("Config file loaded", zap.String("path", path))
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("IGLOOHOME_CLIENT_ID", &c.Igloohome.ClientID)
	str("IGLOOHOME_CLIENT_SECRET", &c.Igloohome.ClientSecret)
	str("IGLOOHOME_BASE_URL", &c.Igloohome.BaseURL)
	str("IGLOOHOME_TOKEN_URL", &c.Igloohome.TokenURL)
	str("MQTT_BROKER", &c.MQTT.Broker)
	str("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("MQTT_USERNAME", &c.MQTT.Username)
	str("MQTT_PASSWORD", &c.MQTT.Password)
	str("MQTT_DISCOVERY_PREFIX", &c.MQTT.DiscoveryPrefix)
	str("MQTT_TOPIC_PREFIX", &c.MQTT.TopicPrefix)
	str("HA_URL", &c.HomeAssistant.URL)
	str("HA_TOKEN", &c.HomeAssistant.Token)

	if v, ok := lookup("IGLOOHOME_SCOPES"); ok && v != "" {
		c.Igloohome.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}

	if v, ok := lookup("IGLOOHOME_SCAN_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IGLOOHOME_SCAN_INTERVAL %q: %w", v, err)
		}
		c.Igloohome.ScanInterval = d
	}

	if v, ok := lookup("READ_ONLY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid READ_ONLY %q: %w", v, err)
		}
		c.ReadOnly = b
	}

	if v, ok := lookup("API_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_PORT %q: %w", v, err)
		}
		c.API.Port = port
	}

	return nil
}

// Validate checks the settings needed to talk to the igloohome cloud
func (c *Config) Validate() error {
	if c.Igloohome.ClientID == "" {
		return fmt.Errorf("igloohome client_id is required (IGLOOHOME_CLIENT_ID)")
	}
	if c.Igloohome.ClientSecret == "" {
		return fmt.Errorf("igloohome client_secret is required (IGLOOHOME_CLIENT_SECRET)")
	}
	if c.Igloohome.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %v", c.Igloohome.ScanInterval)
	}
	if c.Igloohome.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.Igloohome.RequestTimeout)
	}
	return nil
}

// ValidateService additionally checks what the long-running bridge needs
func (c *Config) ValidateService() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required (MQTT_BROKER)")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.TopicPrefix == "" || c.MQTT.DiscoveryPrefix == "" {
		return fmt.Errorf("mqtt topic_prefix and discovery_prefix cannot be empty")
	}
	if (c.HomeAssistant.URL == "") != (c.HomeAssistant.Token == "") {
		return fmt.Errorf("HA_URL and HA_TOKEN must be set together")
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api port out of range: %d", c.API.Port)
	}
	return nil
}

// NotificationsEnabled reports whether a Home Assistant connection is configured
func (c *Config) NotificationsEnabled() bool {
	return c.HomeAssistant.URL != "" && c.HomeAssistant.Token != ""
}

// IgloohomeOptions returns the cloud client options
func (c *Config) IgloohomeOptions() igloohome.Options {
	return igloohome.Options{
		ClientID:     c.Igloohome.ClientID,
		ClientSecret: c.Igloohome.ClientSecret,
		BaseURL:      c.Igloohome.BaseURL,
		TokenURL:     c.Igloohome.TokenURL,
		Scopes:       c.Igloohome.Scopes,
		Timeout:      c.Igloohome.RequestTimeout,
	}
}

func (c *Config) Topics() mqtt.Topics {
	return mqtt.Topics{DiscoveryPrefix: c.MQTT.DiscoveryPrefix, Prefix: c.MQTT.TopicPrefix}
}

// MQTTOptions returns broker settings with the bridge status topic as LWT
func (c *Config) MQTTOptions() mqtt.Config {
	return mqtt.Config{
		Broker:      c.MQTT.Broker,
		ClientID:    c.MQTT.ClientID,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		QoS:         byte(c.MQTT.QoS),
		StatusTopic: c.Topics().Status(),
	}
}
