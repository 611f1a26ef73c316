package mqtt

import (
	"encoding/json"
	"fmt"

	"igloobridge/internal/entity"
)

// Payloads exchanged with Home Assistant on lock topics
const (
	PayloadLock     = "LOCK"
	PayloadUnlock   = "UNLOCK"
	PayloadOpen     = "OPEN"
	PayloadReset    = "None"
	StateLocked     = "LOCKED"
	StateUnlocked   = "UNLOCKED"
	AvailabilityAll = "all"
)

// Availability is one entry of a discovery availability list
type Availability struct {
	Topic string `json:"topic"`
}

// LockConfig is the discovery payload for a lock entity. Optimistic is
// set because the bridge only knows the state it last commanded, so Home
// Assistant shows the entity as assumed state.
type LockConfig struct {
	Name             *string           `json:"name"`
	UniqueID         string            `json:"unique_id"`
	CommandTopic     string            `json:"command_topic"`
	StateTopic       string            `json:"state_topic"`
	Availability     []Availability    `json:"availability"`
	AvailabilityMode string            `json:"availability_mode"`
	PayloadLock      string            `json:"payload_lock"`
	PayloadUnlock    string            `json:"payload_unlock"`
	PayloadOpen      string            `json:"payload_open"`
	PayloadReset     string            `json:"payload_reset"`
	StateLocked      string            `json:"state_locked"`
	StateUnlocked    string            `json:"state_unlocked"`
	Optimistic       bool              `json:"optimistic"`
	Device           entity.DeviceInfo `json:"device"`
}

// SensorConfig is the discovery payload for a battery sensor
type SensorConfig struct {
	Name              string            `json:"name"`
	UniqueID          string            `json:"unique_id"`
	StateTopic        string            `json:"state_topic"`
	Availability      []Availability    `json:"availability"`
	AvailabilityMode  string            `json:"availability_mode"`
	DeviceClass       string            `json:"device_class"`
	StateClass        string            `json:"state_class"`
	UnitOfMeasurement string            `json:"unit_of_measurement"`
	EntityCategory    string            `json:"entity_category"`
	Device            entity.DeviceInfo `json:"device"`
}

func (t Topics) availability(uniqueID string) []Availability {
	return []Availability{
		{Topic: t.Status()},
		{Topic: t.Availability(uniqueID)},
	}
}

// NewLockConfig builds the discovery payload for a lock. Name is null so
// the entity takes the device name.
func (t Topics) NewLockConfig(uniqueID string, device entity.DeviceInfo) LockConfig {
	return LockConfig{
		UniqueID:         uniqueID,
		CommandTopic:     t.Command(uniqueID),
		StateTopic:       t.State(uniqueID),
		Availability:     t.availability(uniqueID),
		AvailabilityMode: AvailabilityAll,
		PayloadLock:      PayloadLock,
		PayloadUnlock:    PayloadUnlock,
		PayloadOpen:      PayloadOpen,
		PayloadReset:     PayloadReset,
		StateLocked:      StateLocked,
		StateUnlocked:    StateUnlocked,
		Optimistic:       true,
		Device:           device,
	}
}

// NewBatteryConfig builds the discovery payload for a battery sensor
func (t Topics) NewBatteryConfig(uniqueID string, device entity.DeviceInfo) SensorConfig {
	return SensorConfig{
		Name:              "Battery",
		UniqueID:          uniqueID,
		StateTopic:        t.State(uniqueID),
		Availability:      t.availability(uniqueID),
		AvailabilityMode:  AvailabilityAll,
		DeviceClass:       "battery",
		StateClass:        "measurement",
		UnitOfMeasurement: "%",
		EntityCategory:    "diagnostic",
		Device:            device,
	}
}

// PublishJSON marshals v and publishes it
func PublishJSON(p Publisher, topic string, v interface{}, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}
	return p.Publish(topic, payload, retained)
}

// AvailabilityPayload maps availability to online/offline
func AvailabilityPayload(available bool) []byte {
	if available {
		return []byte(PayloadOnline)
	}
	return []byte(PayloadOffline)
}
