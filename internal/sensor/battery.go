// Package sensor implements the battery level sensor exposed for every
// igloohome device that reports one.
package sensor

import (
	"sync"

	"igloobridge/internal/entity"
	"igloobridge/internal/igloohome"
)

// UniqueKey prefixes battery sensor unique IDs
const UniqueKey = "battery"

// Battery reports a device's battery percentage
type Battery struct {
	*entity.Base

	mu    sync.RWMutex
	level int
	known bool
}

// NewBattery creates a battery sensor seeded from device
func NewBattery(device igloohome.Device) *Battery {
	b := &Battery{Base: entity.NewBase(device, UniqueKey)}
	if device.BatteryLevel != nil {
		b.level = *device.BatteryLevel
		b.known = true
	}
	return b
}

// Setup creates a sensor for every device with a battery level
func Setup(devices []igloohome.Device) []*Battery {
	sensors := make([]*Battery, 0)
	for _, device := range devices {
		if device.BatteryLevel == nil {
			continue
		}
		sensors = append(sensors, NewBattery(device))
	}
	return sensors
}

// Level returns the last reported level, and whether one is known
func (b *Battery) Level() (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.level, b.known
}

// Sync applies a fetched device list. The sensor is unavailable while its
// device is missing or reports no level.
func (b *Battery) Sync(devices []igloohome.Device) {
	device, ok := igloohome.FindDevice(b.DeviceID(), devices)
	if !ok || device.BatteryLevel == nil {
		b.SetAvailable(false)
		return
	}

	b.SetDevice(device)

	b.mu.Lock()
	b.level = *device.BatteryLevel
	b.known = true
	b.mu.Unlock()

	b.SetAvailable(true)
}
