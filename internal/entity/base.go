// Package entity holds what every igloohome entity shares: the device
// snapshot it was built from, its unique ID, device registry info and
// availability.
package entity

import (
	"sync"

	"igloobridge/internal/igloohome"
)

const (
	Domain       = "igloohome"
	Manufacturer = "igloohome"
)

// DeviceInfo groups entities of the same physical device in Home Assistant
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// Base is embedded by entity implementations
type Base struct {
	uniqueID string

	mu        sync.RWMutex
	device    igloohome.Device
	available bool
}

// NewBase creates a base for the entity kind uniqueKey (e.g. "lock").
// New entities start available.
func NewBase(device igloohome.Device, uniqueKey string) *Base {
	return &Base{
		uniqueID:  uniqueKey + "_" + device.DeviceID,
		device:    device,
		available: true,
	}
}

// UniqueID returns "{uniqueKey}_{deviceId}"
func (b *Base) UniqueID() string {
	return b.uniqueID
}

func (b *Base) DeviceID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device.DeviceID
}

func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device.DeviceName
}

// Device returns a copy of the latest device snapshot
func (b *Base) Device() igloohome.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// SetDevice replaces the snapshot. The device ID never changes.
func (b *Base) SetDevice(device igloohome.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	device.DeviceID = b.device.DeviceID
	b.device = device
}

func (b *Base) DeviceInfo() DeviceInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return DeviceInfo{
		Identifiers:  []string{Domain + "_" + b.device.DeviceID},
		Name:         b.device.DeviceName,
		Manufacturer: Manufacturer,
		Model:        b.device.Type,
	}
}

func (b *Base) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.available
}

func (b *Base) SetAvailable(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available = available
}
