package igloohome

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Job records a bridge-proxied job submitted to MockAPI
type Job struct {
	DeviceID string
	BridgeID string
	Type     JobType
	Time     time.Time
}

// MockAPI implements API for testing
type MockAPI struct {
	mu             sync.Mutex
	devices        []Device
	devicesErr     error
	jobErr         error
	jobs           []Job
	getDevicesHits int
}

// NewMockAPI creates a mock API serving the given devices
func NewMockAPI(devices ...Device) *MockAPI {
	return &MockAPI{
		devices: devices,
		jobs:    make([]Job, 0),
	}
}

// GetDevices returns the configured devices or error
func (m *MockAPI) GetDevices(ctx context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getDevicesHits++
	if m.devicesErr != nil {
		return nil, m.devicesErr
	}

	devices := make([]Device, len(m.devices))
	copy(devices, m.devices)
	return devices, nil
}

// GetDevice returns one configured device, or a 404 APIError
func (m *MockAPI) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devicesErr != nil {
		return nil, m.devicesErr
	}

	device, ok := FindDevice(deviceID, m.devices)
	if !ok {
		return nil, &APIError{Op: "get device", StatusCode: http.StatusNotFound}
	}
	return &device, nil
}

// CreateBridgeProxiedJob records the job
func (m *MockAPI) CreateBridgeProxiedJob(ctx context.Context, deviceID, bridgeID string, job JobType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.jobErr != nil {
		return m.jobErr
	}

	m.jobs = append(m.jobs, Job{
		DeviceID: deviceID,
		BridgeID: bridgeID,
		Type:     job,
		Time:     time.Now(),
	})
	return nil
}

// SetDevices replaces the device list
func (m *MockAPI) SetDevices(devices ...Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

// SetDevicesError makes device queries fail with err (nil to clear)
func (m *MockAPI) SetDevicesError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devicesErr = err
}

// SetJobError makes job submissions fail with err (nil to clear)
func (m *MockAPI) SetJobError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobErr = err
}

// Jobs returns all recorded jobs
func (m *MockAPI) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]Job, len(m.jobs))
	copy(jobs, m.jobs)
	return jobs
}

// ClearJobs clears the job history
func (m *MockAPI) ClearJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = make([]Job, 0)
}

// GetDevicesCalls returns how many times GetDevices was called
func (m *MockAPI) GetDevicesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getDevicesHits
}
