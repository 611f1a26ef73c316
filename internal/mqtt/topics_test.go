package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"igloobridge/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopics(t *testing.T) {
	topics := DefaultTopics()

	assert.Equal(t, "igloohome/status", topics.Status())
	assert.Equal(t, "homeassistant/lock/igloohome/lock_OE1X/config", topics.Config(ComponentLock, "lock_OE1X"))
	assert.Equal(t, "homeassistant/sensor/igloohome/battery_OE1X/config", topics.Config(ComponentSensor, "battery_OE1X"))
	assert.Equal(t, "igloohome/lock_OE1X/state", topics.State("lock_OE1X"))
	assert.Equal(t, "igloohome/lock_OE1X/set", topics.Command("lock_OE1X"))
	assert.Equal(t, "igloohome/lock_OE1X/availability", topics.Availability("lock_OE1X"))
}

func TestTopics_ParseCommand(t *testing.T) {
	topics := DefaultTopics()

	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"igloohome/lock_OE1X/set", "lock_OE1X", true},
		{"igloohome/lock_OE1X/state", "", false},
		{"other/lock_OE1X/set", "", false},
		{"igloohome//set", "", false},
		{"igloohome/a/b/set", "", false},
		{"igloohome/set", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := topics.ParseCommand(tt.topic)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLockConfig(t *testing.T) {
	topics := Topics{DiscoveryPrefix: "ha", Prefix: "igloo"}
	device := entity.DeviceInfo{
		Identifiers:  []string{"igloohome_OE1X"},
		Name:         "Front Door",
		Manufacturer: "igloohome",
		Model:        "Lock",
	}

	payload, err := json.Marshal(topics.NewLockConfig("lock_OE1X", device))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &got))

	assert.Nil(t, got["name"], "name must be null so the entity uses the device name")
	assert.Equal(t, "lock_OE1X", got["unique_id"])
	assert.Equal(t, "igloo/lock_OE1X/set", got["command_topic"])
	assert.Equal(t, "igloo/lock_OE1X/state", got["state_topic"])
	assert.Equal(t, "OPEN", got["payload_open"])
	assert.Equal(t, true, got["optimistic"])
	assert.Equal(t, "all", got["availability_mode"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"topic": "igloo/status"},
		map[string]interface{}{"topic": "igloo/lock_OE1X/availability"},
	}, got["availability"])
	assert.Equal(t, "Front Door", got["device"].(map[string]interface{})["name"])
}

func TestNewBatteryConfig(t *testing.T) {
	cfg := DefaultTopics().NewBatteryConfig("battery_OE1X", entity.DeviceInfo{Name: "Front Door"})

	assert.Equal(t, "battery", cfg.DeviceClass)
	assert.Equal(t, "%", cfg.UnitOfMeasurement)
	assert.Equal(t, "igloohome/battery_OE1X/state", cfg.StateTopic)
	assert.Equal(t, "diagnostic", cfg.EntityCategory)
}

func TestPublishJSON(t *testing.T) {
	m := NewMockClient()

	require.NoError(t, PublishJSON(m, "igloohome/x", map[string]int{"a": 1}, true))
	msg, ok := m.Last("igloohome/x")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(msg.Payload))
	assert.True(t, msg.Retained)

	err := PublishJSON(m, "igloohome/x", make(chan int), false)
	assert.Error(t, err)
}

func TestAvailabilityPayload(t *testing.T) {
	assert.Equal(t, []byte("online"), AvailabilityPayload(true))
	assert.Equal(t, []byte("offline"), AvailabilityPayload(false))
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()

	var received []string
	require.NoError(t, m.Subscribe("igloohome/+/set", func(topic string, payload []byte) error {
		received = append(received, topic+"="+string(payload))
		return nil
	}))

	matched, err := m.Deliver("igloohome/lock_A/set", []byte("LOCK"))
	require.NoError(t, err)
	assert.True(t, matched)

	matched, _ = m.Deliver("igloohome/lock_A/state", []byte("LOCKED"))
	assert.False(t, matched)
	assert.Equal(t, []string{"igloohome/lock_A/set=LOCK"}, received)

	publishErr := errors.New("broker down")
	m.SetPublishError(publishErr)
	assert.ErrorIs(t, m.Publish("igloohome/status", []byte("online"), true), publishErr)
	assert.Empty(t, m.Messages())

	require.NoError(t, m.Unsubscribe("igloohome/+/set"))
	assert.Empty(t, m.Subscriptions())
}

func TestMatchTopic(t *testing.T) {
	assert.True(t, matchTopic("a/+/c", "a/b/c"))
	assert.True(t, matchTopic("a/b", "a/b"))
	assert.False(t, matchTopic("a/+", "a/b/c"))
	assert.False(t, matchTopic("a/+/c", "a/b/d"))
}
