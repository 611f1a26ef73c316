package mqtt

import (
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultOperationTimeout  = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	defaultReconnectInterval = 2 * time.Second
	defaultMaxReconnect      = time.Minute
	maxQoS                   = 2

	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Config holds broker connection settings
type Config struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883 or ssl://host:8883
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte

	// StatusTopic receives "online" on connect and "offline" as the
	// last will, so Home Assistant marks every entity unavailable when
	// the bridge process dies.
	StatusTopic string
}

// clientID returns the configured client ID or a random one
func (c Config) clientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return "igloobridge-" + uuid.NewString()[:8]
}

// buildClientOptions creates paho options from cfg
func buildClientOptions(cfg Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.clientID())

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	// Handlers block on vendor calls and publish tokens, so they must not
	// run on the router goroutine.
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(defaultMaxReconnect)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.StatusTopic != "" {
		opts.SetWill(cfg.StatusTopic, PayloadOffline, cfg.QoS, true)
	}

	return opts
}
