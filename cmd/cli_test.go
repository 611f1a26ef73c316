package main

import (
	"bytes"
	"testing"

	"igloobridge/internal/igloohome"
	"igloobridge/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newCloud(t *testing.T) *testutil.MockCloudServer {
	t.Helper()

	server := testutil.NewMockCloudServer("cli-id", "cli-secret")
	t.Cleanup(server.Close)
	server.SetDevices(
		igloohome.Device{Type: igloohome.DeviceTypeLock, DeviceID: "OE1Xfront", DeviceName: "Front Door", BatteryLevel: intPtr(90)},
		igloohome.Device{Type: igloohome.DeviceTypeLock, DeviceID: "OE1Xshed", DeviceName: "Shed"},
		igloohome.Device{
			Type:          igloohome.DeviceTypeBridge,
			DeviceID:      "EB1Xbridge",
			DeviceName:    "Hall Bridge",
			LinkedDevices: []igloohome.LinkedDevice{{Type: igloohome.DeviceTypeLock, DeviceID: "OE1Xfront"}},
		},
	)

	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("IGLOOHOME_CLIENT_ID", "cli-id")
	t.Setenv("IGLOOHOME_CLIENT_SECRET", "cli-secret")
	t.Setenv("IGLOOHOME_BASE_URL", server.BaseURL())
	t.Setenv("IGLOOHOME_TOKEN_URL", server.TokenURL())
	t.Setenv("READ_ONLY", "false")
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--debug"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestDevicesCommand(t *testing.T) {
	newCloud(t)

	out, err := execute(t, "devices")
	require.NoError(t, err)

	assert.Contains(t, out, "DEVICE ID")
	assert.Regexp(t, `OE1Xfront\s+Lock\s+Front Door\s+EB1Xbridge\s+90%`, out)
	assert.Regexp(t, `OE1Xshed\s+Lock\s+Shed\s+none`, out)
	assert.Regexp(t, `EB1Xbridge\s+Bridge\s+Hall Bridge\s+-`, out)
}

func TestDeviceCommand(t *testing.T) {
	newCloud(t)

	out, err := execute(t, "device", "EB1Xbridge")
	require.NoError(t, err)
	assert.Regexp(t, `Device ID:\s+EB1Xbridge`, out)
	assert.Regexp(t, `Type:\s+Bridge`, out)
	assert.Regexp(t, `Linked:\s+OE1Xfront \(Lock\)`, out)

	out, err = execute(t, "device", "OE1Xfront")
	require.NoError(t, err)
	assert.Regexp(t, `Battery:\s+90%`, out)

	_, err = execute(t, "device", "missing")
	assert.ErrorContains(t, err, "404")
}

func TestJobCommands(t *testing.T) {
	tests := []struct {
		action  string
		wantJob int
	}{
		{"lock", int(igloohome.JobLock)},
		{"unlock", int(igloohome.JobUnlock)},
		{"open", int(igloohome.JobUnlock)},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			server := newCloud(t)

			out, err := execute(t, tt.action, "OE1Xfront")
			require.NoError(t, err)
			assert.Contains(t, out, "job sent via bridge EB1Xbridge")

			jobs := server.GetJobs()
			require.Len(t, jobs, 1)
			assert.Equal(t, "EB1Xbridge", jobs[0].BridgeID)
			assert.Equal(t, tt.wantJob, jobs[0].JobType)
		})
	}
}

func TestJobCommand_Errors(t *testing.T) {
	t.Run("lock without bridge", func(t *testing.T) {
		newCloud(t)
		_, err := execute(t, "lock", "OE1Xshed")
		assert.ErrorContains(t, err, "no linked bridge")
	})

	t.Run("not a lock", func(t *testing.T) {
		newCloud(t)
		_, err := execute(t, "unlock", "EB1Xbridge")
		assert.ErrorContains(t, err, "no lock with device ID")
	})

	t.Run("missing argument", func(t *testing.T) {
		newCloud(t)
		_, err := execute(t, "open")
		assert.Error(t, err)
	})

	t.Run("read-only sends nothing", func(t *testing.T) {
		server := newCloud(t)
		out, err := execute(t, "--read-only", "lock", "OE1Xfront")
		require.NoError(t, err)
		assert.Contains(t, out, "read-only: would lock Front Door")
		assert.Empty(t, server.GetJobs())
	})

	t.Run("missing credentials", func(t *testing.T) {
		newCloud(t)
		t.Setenv("IGLOOHOME_CLIENT_ID", "")
		_, err := execute(t, "devices")
		assert.ErrorContains(t, err, "client_id")
	})
}
