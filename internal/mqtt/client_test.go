package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// doneToken is a paho token that has already completed
type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }

func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// fakeMessage implements pahomqtt.Message
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakePaho records what Client asks of the broker. Methods Client does not
// use panic through the nil embedded interface.
type fakePaho struct {
	pahomqtt.Client

	mu           sync.Mutex
	connected    bool
	subscribed   map[string]pahomqtt.MessageHandler
	published    []Message
	disconnected bool
}

func newFakePaho() *fakePaho {
	return &fakePaho{connected: true, subscribed: make(map[string]pahomqtt.MessageHandler)}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed[topic] = callback
	return &doneToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, topic := range topics {
		delete(f.subscribed, topic)
	}
	return &doneToken{}
}

func (f *fakePaho) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	var data []byte
	switch p := payload.(type) {
	case string:
		data = []byte(p)
	case []byte:
		data = p
	}
	f.published = append(f.published, Message{Topic: topic, Payload: data, Retained: retained})
	return &doneToken{}
}

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	f.connected = false
}

// dropSession forgets broker-side subscriptions, as a clean session does
func (f *fakePaho) dropSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = make(map[string]pahomqtt.MessageHandler)
}

func (f *fakePaho) handler(topic string) (pahomqtt.MessageHandler, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.subscribed[topic]
	return h, ok
}

func (f *fakePaho) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.published...)
}

func newTestClient(fake *fakePaho) *Client {
	return &Client{
		client:        fake,
		cfg:           Config{Broker: "tcp://broker.local:1883", QoS: 1, StatusTopic: "igloohome/status"},
		logger:        zap.NewNop(),
		subscriptions: make(map[string]MessageHandler),
		connected:     true,
	}
}

func TestClient_ReconnectRestoresSubscriptions(t *testing.T) {
	fake := newFakePaho()
	c := newTestClient(fake)

	var received []string
	handler := func(topic string, payload []byte) error {
		received = append(received, topic+"="+string(payload))
		return nil
	}

	require.NoError(t, c.Subscribe("igloohome/lock_a/set", handler))
	require.NoError(t, c.Subscribe("igloohome/lock_b/set", handler))
	require.NoError(t, c.Subscribe("igloohome/lock_c/set", handler))
	require.NoError(t, c.Unsubscribe("igloohome/lock_c/set"))

	c.handleDisconnect(errors.New("connection reset by peer"))
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish("igloohome/lock_a/state", []byte("LOCKED"), true), ErrNotConnected)

	fake.dropSession()
	c.handleConnect()
	assert.True(t, c.IsConnected())

	for _, topic := range []string{"igloohome/lock_a/set", "igloohome/lock_b/set"} {
		h, ok := fake.handler(topic)
		require.True(t, ok, "%s not resubscribed", topic)
		h(fake, &fakeMessage{topic: topic, payload: []byte("LOCK")})
	}
	_, ok := fake.handler("igloohome/lock_c/set")
	assert.False(t, ok, "removed subscriptions stay removed")

	assert.ElementsMatch(t, []string{"igloohome/lock_a/set=LOCK", "igloohome/lock_b/set=LOCK"}, received)

	published := fake.messages()
	require.NotEmpty(t, published)
	assert.Equal(t, Message{Topic: "igloohome/status", Payload: []byte(PayloadOnline), Retained: true}, published[len(published)-1])
}

func TestClient_HandlerPanicRecovered(t *testing.T) {
	fake := newFakePaho()
	c := newTestClient(fake)

	require.NoError(t, c.Subscribe("igloohome/lock_a/set", func(string, []byte) error {
		panic("boom")
	}))

	h, ok := fake.handler("igloohome/lock_a/set")
	require.True(t, ok)
	assert.NotPanics(t, func() {
		h(fake, &fakeMessage{topic: "igloohome/lock_a/set", payload: []byte("LOCK")})
	})
}

func TestClient_Close(t *testing.T) {
	fake := newFakePaho()
	c := newTestClient(fake)

	require.NoError(t, c.Close())

	assert.True(t, fake.disconnected)
	assert.False(t, c.IsConnected())
	assert.Equal(t, []Message{{Topic: "igloohome/status", Payload: []byte(PayloadOffline), Retained: true}}, fake.messages())
}

func TestClient_PublishValidation(t *testing.T) {
	c := newTestClient(newFakePaho())

	assert.ErrorIs(t, c.Publish("", []byte("x"), false), ErrInvalidTopic)
	assert.ErrorIs(t, c.Publish("t", make([]byte, maxPayloadSize+1), false), ErrPublishFailed)
	assert.ErrorIs(t, c.Subscribe("t", nil), ErrSubscribeFailed)
}
