package ha

import (
	"sync"
	"time"
)

// ServiceCall records a service call for testing
type ServiceCall struct {
	Domain  string
	Service string
	Data    map[string]interface{}
	Time    time.Time
}

// MockClient implements HAClient for testing
type MockClient struct {
	connMu    sync.RWMutex
	connected bool

	callsMu      sync.Mutex
	serviceCalls []ServiceCall
	callErr      error
}

// NewMockClient creates a new, disconnected mock HA client
func NewMockClient() *MockClient {
	return &MockClient{
		serviceCalls: make([]ServiceCall, 0),
	}
}

// Connect simulates connecting to Home Assistant
func (m *MockClient) Connect() error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}
	m.connected = true
	return nil
}

// Disconnect simulates disconnecting
func (m *MockClient) Disconnect() error {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	m.connected = false
	return nil
}

// IsConnected returns the simulated connection state
func (m *MockClient) IsConnected() bool {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return m.connected
}

// CallService records the call
func (m *MockClient) CallService(domain, service string, data map[string]interface{}) error {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()

	if m.callErr != nil {
		return m.callErr
	}

	m.serviceCalls = append(m.serviceCalls, ServiceCall{
		Domain:  domain,
		Service: service,
		Data:    data,
		Time:    time.Now(),
	})
	return nil
}

// CreateNotification records a persistent_notification.create call
func (m *MockClient) CreateNotification(n Notification) error {
	data := map[string]interface{}{
		"title":   n.Title,
		"message": n.Message,
	}
	if n.ID != "" {
		data["notification_id"] = n.ID
	}
	return m.CallService("persistent_notification", "create", data)
}

// DismissNotification records a persistent_notification.dismiss call
func (m *MockClient) DismissNotification(id string) error {
	return m.CallService("persistent_notification", "dismiss", map[string]interface{}{
		"notification_id": id,
	})
}

// SetCallError makes every service call fail with err (nil to clear)
func (m *MockClient) SetCallError(err error) {
	m.callsMu.Lock()
	m.callErr = err
	m.callsMu.Unlock()
}

// GetServiceCalls returns all recorded service calls
func (m *MockClient) GetServiceCalls() []ServiceCall {
	m.callsMu.Lock()
	defer m.callsMu.Unlock()
	return append([]ServiceCall(nil), m.serviceCalls...)
}

// Notifications returns the notifications created so far
func (m *MockClient) Notifications() []Notification {
	var out []Notification
	for _, call := range m.GetServiceCalls() {
		if call.Domain != "persistent_notification" || call.Service != "create" {
			continue
		}
		n := Notification{}
		n.Title, _ = call.Data["title"].(string)
		n.Message, _ = call.Data["message"].(string)
		n.ID, _ = call.Data["notification_id"].(string)
		out = append(out, n)
	}
	return out
}

// Dismissed returns the IDs of dismissed notifications in call order
func (m *MockClient) Dismissed() []string {
	var ids []string
	for _, call := range m.GetServiceCalls() {
		if call.Domain != "persistent_notification" || call.Service != "dismiss" {
			continue
		}
		id, _ := call.Data["notification_id"].(string)
		ids = append(ids, id)
	}
	return ids
}

// ClearServiceCalls drops recorded service calls
func (m *MockClient) ClearServiceCalls() {
	m.callsMu.Lock()
	m.serviceCalls = make([]ServiceCall, 0)
	m.callsMu.Unlock()
}
