package mqtt

import (
	"sort"
	"strings"
	"sync"
)

// Message is a publish recorded by MockClient
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// MockClient is an in-memory Publisher for tests
type MockClient struct {
	mu         sync.Mutex
	messages   []Message
	handlers   map[string]MessageHandler
	publishErr error
	subErrs    map[string]error
	connected  bool
}

// NewMockClient creates a connected mock
func NewMockClient() *MockClient {
	return &MockClient{
		handlers:  make(map[string]MessageHandler),
		subErrs:   make(map[string]error),
		connected: true,
	}
}

func (m *MockClient) Publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return m.publishErr
	}
	m.messages = append(m.messages, Message{Topic: topic, Payload: append([]byte(nil), payload...), Retained: retained})
	return nil
}

func (m *MockClient) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.subErrs[topic]; err != nil {
		return err
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, topic)
	return nil
}

func (m *MockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SetConnected changes the reported connection state
func (m *MockClient) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
}

// SetPublishError makes every Publish fail with err (nil to clear)
func (m *MockClient) SetPublishError(err error) {
	m.mu.Lock()
	m.publishErr = err
	m.mu.Unlock()
}

// FailSubscribe makes Subscribe(topic) fail with err (nil to clear)
func (m *MockClient) FailSubscribe(topic string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.subErrs, topic)
		return
	}
	m.subErrs[topic] = err
}

// Deliver simulates an incoming message. Exact topic subscriptions are
// matched first, then single-level "+" wildcards. It returns false when
// no subscription matches.
func (m *MockClient) Deliver(topic string, payload []byte) (bool, error) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	if !ok {
		for pattern, h := range m.handlers {
			if matchTopic(pattern, topic) {
				handler, ok = h, true
				break
			}
		}
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, handler(topic, payload)
}

// Messages returns all recorded publishes
func (m *MockClient) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Last returns the most recent publish on topic
func (m *MockClient) Last(topic string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Topic == topic {
			return m.messages[i], true
		}
	}
	return Message{}, false
}

// ClearMessages drops recorded publishes
func (m *MockClient) ClearMessages() {
	m.mu.Lock()
	m.messages = nil
	m.mu.Unlock()
}

// Subscriptions returns subscribed topics in sorted order
func (m *MockClient) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	topics := make([]string, 0, len(m.handlers))
	for topic := range m.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// matchTopic supports the "+" single-level wildcard
func matchTopic(pattern, topic string) bool {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "+" && want[i] != got[i] {
			return false
		}
	}
	return true
}
