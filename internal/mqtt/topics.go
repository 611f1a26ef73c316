package mqtt

import (
	"fmt"
	"strings"
)

const (
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultTopicPrefix     = "igloohome"
)

// Component is a Home Assistant MQTT discovery component
type Component string

const (
	ComponentLock   Component = "lock"
	ComponentSensor Component = "sensor"
)

// Topics builds discovery and entity topics.
//
//	topics := mqtt.DefaultTopics()
//	topics.Command("lock_OE1X123cba")
//	// Returns: "igloohome/lock_OE1X123cba/set"
type Topics struct {
	DiscoveryPrefix string
	Prefix          string
}

// DefaultTopics uses the Home Assistant discovery prefix and "igloohome"
func DefaultTopics() Topics {
	return Topics{DiscoveryPrefix: DefaultDiscoveryPrefix, Prefix: DefaultTopicPrefix}
}

// Status is the bridge-wide online/offline topic.
//
// Example: igloohome/status
func (t Topics) Status() string {
	return t.Prefix + "/status"
}

// Config returns the discovery config topic for an entity.
//
// Example: homeassistant/lock/igloohome/lock_OE1X123cba/config
func (t Topics) Config(component Component, uniqueID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.DiscoveryPrefix, component, t.Prefix, uniqueID)
}

// State returns the state topic for an entity.
//
// Example: igloohome/lock_OE1X123cba/state
func (t Topics) State(uniqueID string) string {
	return fmt.Sprintf("%s/%s/state", t.Prefix, uniqueID)
}

// Command returns the topic Home Assistant publishes commands to.
//
// Example: igloohome/lock_OE1X123cba/set
func (t Topics) Command(uniqueID string) string {
	return fmt.Sprintf("%s/%s/set", t.Prefix, uniqueID)
}

// Availability returns the per-entity availability topic.
//
// Example: igloohome/lock_OE1X123cba/availability
func (t Topics) Availability(uniqueID string) string {
	return fmt.Sprintf("%s/%s/availability", t.Prefix, uniqueID)
}

// ParseCommand extracts the unique ID from a command topic
func (t Topics) ParseCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	uniqueID, ok := strings.CutSuffix(rest, "/set")
	if !ok || uniqueID == "" || strings.Contains(uniqueID, "/") {
		return "", false
	}
	return uniqueID, true
}
