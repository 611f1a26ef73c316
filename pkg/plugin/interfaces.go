// Package plugin provides the plugin system interfaces and registry for the
// bridge. Integrations register themselves with the global registry using
// init() functions, allowing for compile-time plugin selection and override
// mechanisms for private implementations.
package plugin

import "context"

// Plugin is the core interface that all plugins must implement.
// A plugin owns the entities of one integration (e.g., igloohome locks).
type Plugin interface {
	// Name returns the unique identifier for this plugin.
	// This name is used for registration and logging.
	Name() string

	// Start begins the plugin's operation.
	// - Discovers devices and sets up entities
	// - Starts any background refresh
	// - Returns error if initialization fails
	Start() error

	// Stop gracefully shuts down the plugin.
	// - Unsubscribes from command topics
	// - Stops background refresh
	// - Marks entities offline
	Stop()
}

// Refreshable is an optional interface for plugins whose entities can be
// refreshed on demand, outside the regular scan interval.
type Refreshable interface {
	Refresh(ctx context.Context) error
}

// Factory is a function that creates a new plugin instance given a context.
// Factories are registered with the global registry and called during
// application startup to instantiate plugins.
type Factory func(ctx *Context) (Plugin, error)
