package igloohome

import (
	"context"
	"fmt"

	"igloobridge/internal/lock"
	"igloobridge/pkg/plugin"
)

func init() {
	plugin.Register(plugin.PluginInfo{
		Name:        PluginName,
		Description: "igloohome locks via bridge-proxied jobs, exposed over MQTT discovery",
		Priority:    plugin.PriorityDefault,
		Order:       50,
		Factory:     createPlugin,
	})
}

// createPlugin creates a new igloohome plugin instance from the plugin context.
func createPlugin(ctx *plugin.Context) (plugin.Plugin, error) {
	if ctx.API == nil {
		return nil, fmt.Errorf("igloohome plugin requires an igloohome API client")
	}
	if ctx.Publisher == nil {
		return nil, fmt.Errorf("igloohome plugin requires an MQTT publisher")
	}
	if ctx.Logger == nil {
		return nil, fmt.Errorf("igloohome plugin requires a logger")
	}

	manager := NewManager(ctx.API, ctx.Publisher, ctx.Topics, ctx.Logger, ctx.ReadOnly)
	if ctx.Clock != nil {
		manager.SetClock(ctx.Clock)
	}
	if ctx.Notifier != nil {
		manager.SetNotifier(ctx.Notifier)
	}
	manager.SetMetrics(ctx.Metrics)
	manager.SetScanInterval(ctx.ScanInterval)

	return &pluginAdapter{manager: manager}, nil
}

// pluginAdapter wraps the Manager to implement the plugin.Plugin interface.
type pluginAdapter struct {
	manager *Manager
}

func (p *pluginAdapter) Name() string {
	return PluginName
}

func (p *pluginAdapter) Start() error {
	return p.manager.Start()
}

func (p *pluginAdapter) Stop() {
	p.manager.Stop()
}

// Implement plugin.Refreshable
func (p *pluginAdapter) Refresh(ctx context.Context) error {
	return p.manager.Refresh(ctx)
}

// Locks and Command let the HTTP API drive the plugin
func (p *pluginAdapter) Locks() []lock.Snapshot {
	return p.manager.Locks()
}

func (p *pluginAdapter) Command(ctx context.Context, uniqueID string, action lock.Action) error {
	return p.manager.Command(ctx, uniqueID, action)
}
