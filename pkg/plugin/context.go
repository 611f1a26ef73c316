package plugin

import (
	"time"

	"igloobridge/internal/clock"
	"igloobridge/internal/ha"
	"igloobridge/internal/igloohome"
	"igloobridge/internal/metrics"
	"igloobridge/internal/mqtt"

	"go.uber.org/zap"
)

// Context provides dependencies to plugins during initialization.
// It wraps the core services needed by all plugins in a single struct
// for cleaner constructor signatures.
type Context struct {
	// API is the igloohome cloud client.
	API igloohome.API

	// Publisher exposes entities to Home Assistant via MQTT discovery
	// and delivers commands back to the plugin.
	Publisher mqtt.Publisher

	// Topics builds discovery, state and command topics.
	Topics mqtt.Topics

	// Notifier surfaces failures in Home Assistant. May be nil when no
	// Home Assistant WebSocket connection is configured.
	Notifier ha.Notifier

	// Metrics records job and refresh outcomes. May be nil.
	Metrics *metrics.Metrics

	// Logger is a structured logger for the plugin to use.
	// Plugins should use logger.Named("pluginname") for namespacing.
	Logger *zap.Logger

	// Clock drives periodic work. Tests supply a clock.MockClock.
	Clock clock.Clock

	// ReadOnly indicates whether the application is in read-only mode.
	// When true, plugins should log what they would do but not send
	// jobs to the vendor API.
	ReadOnly bool

	// ScanInterval is how often entities are refreshed.
	ScanInterval time.Duration
}

// NewContext creates a new plugin context with all required dependencies.
// Optional services (notifier, metrics) can be set on the returned struct.
func NewContext(
	api igloohome.API,
	publisher mqtt.Publisher,
	topics mqtt.Topics,
	logger *zap.Logger,
	readOnly bool,
	scanInterval time.Duration,
) *Context {
	return &Context{
		API:          api,
		Publisher:    publisher,
		Topics:       topics,
		Logger:       logger,
		Clock:        clock.NewRealClock(),
		ReadOnly:     readOnly,
		ScanInterval: scanInterval,
	}
}
