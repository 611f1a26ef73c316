package mqtt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBuildClientOptions(t *testing.T) {
	opts := buildClientOptions(Config{
		Broker:      "tcp://broker.local:1883",
		ClientID:    "igloobridge-test",
		Username:    "user",
		Password:    "pass",
		QoS:         1,
		StatusTopic: "igloohome/status",
	})

	assert.Equal(t, "igloobridge-test", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "pass", opts.Password)
	assert.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker.local:1883", opts.Servers[0].Host)
	assert.True(t, opts.AutoReconnect)
	assert.False(t, opts.Order, "handlers must not run inline on the router goroutine")

	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "igloohome/status", opts.WillTopic)
	assert.Equal(t, []byte(PayloadOffline), opts.WillPayload)
	assert.True(t, opts.WillRetained)
}

func TestConfig_RandomClientID(t *testing.T) {
	first := Config{}.clientID()
	second := Config{}.clientID()

	assert.True(t, strings.HasPrefix(first, "igloobridge-"))
	assert.NotEqual(t, first, second)
}

func TestConnect_InvalidQoS(t *testing.T) {
	_, err := Connect(Config{Broker: "tcp://127.0.0.1:1", QoS: 3}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidQoS)
}

func TestConnectWithRetry_ConfigErrorNotRetried(t *testing.T) {
	_, err := ConnectWithRetry(context.Background(), Config{Broker: "tcp://127.0.0.1:1", QoS: 3}, zap.NewNop(), 5)
	assert.ErrorIs(t, err, ErrInvalidQoS)
}

func TestConnectWithRetry_Unreachable(t *testing.T) {
	_, err := ConnectWithRetry(context.Background(), Config{Broker: "tcp://127.0.0.1:1"}, zap.NewNop(), 1)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}
