package igloohome

import (
	"context"
	"net/http"
	"testing"
	"time"

	"igloobridge/internal/clock"
	cloud "igloobridge/internal/igloohome"
	"igloobridge/internal/lock"
	"igloobridge/internal/mqtt"
	"igloobridge/pkg/plugin"
	"igloobridge/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestIntegration_CloudRoundTrip drives the plugin through the registry
// against a mock igloohome cloud speaking real HTTP and OAuth2.
func TestIntegration_CloudRoundTrip(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	server := testutil.NewMockCloudServer("client-id", "client-secret")
	defer server.Close()
	server.SetPageSize(2)
	server.SetDevices(testDevices(bridgeA)...)

	publisher := mqtt.NewMockClient()
	mockClock := clock.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	ctx := plugin.NewContext(cloud.NewClient(server.Options(), logger), publisher, mqtt.DefaultTopics(), logger, false, time.Hour)
	ctx.Clock = mockClock

	info := plugin.Get(PluginName)
	require.NotNil(t, info, "plugin registers itself from init()")

	p, err := info.Factory(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	service, ok := p.(interface {
		Locks() []lock.Snapshot
		Command(ctx context.Context, uniqueID string, action lock.Action) error
	})
	require.True(t, ok)
	require.Len(t, service.Locks(), 1)

	require.NoError(t, service.Command(context.Background(), frontLockID, lock.ActionOpen))

	jobs := server.GetJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, frontDoor, jobs[0].DeviceID)
	assert.Equal(t, bridgeA, jobs[0].BridgeID)
	assert.Equal(t, int(cloud.JobUnlock), jobs[0].JobType)

	t.Run("rejected job surfaces as host error", func(t *testing.T) {
		server.FailJobs(http.StatusBadGateway)
		defer server.FailJobs(0)

		err := service.Command(context.Background(), frontLockID, lock.ActionLock)
		assert.True(t, plugin.IsHostError(err))
	})

	t.Run("scheduled refresh follows the bridge", func(t *testing.T) {
		server.SetDevices(testDevices(bridgeB)...)
		mockClock.Advance(time.Hour)
		assert.Equal(t, bridgeB, service.Locks()[0].BridgeID)
	})

	t.Run("refresh on demand", func(t *testing.T) {
		refreshable, ok := p.(plugin.Refreshable)
		require.True(t, ok)

		server.FailDevices(http.StatusServiceUnavailable)
		defer server.FailDevices(0)

		assert.True(t, plugin.IsHostError(refreshable.Refresh(context.Background())))
		assert.False(t, service.Locks()[0].Available)
	})

	assert.Equal(t, 1, server.TokenCalls(), "the OAuth2 token is reused")
}

func TestCreatePlugin_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := createPlugin(&plugin.Context{Publisher: mqtt.NewMockClient(), Logger: logger})
	assert.Error(t, err)

	_, err = createPlugin(&plugin.Context{API: cloud.NewMockAPI(), Logger: logger})
	assert.Error(t, err)

	p, err := createPlugin(&plugin.Context{API: cloud.NewMockAPI(), Publisher: mqtt.NewMockClient(), Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, PluginName, p.Name())
}
