// Package igloohome is the host plugin for igloohome locks. It builds lock
// and battery entities from the vendor device list, exposes them to Home
// Assistant through MQTT discovery, executes commands that arrive on MQTT
// or the HTTP API, and re-resolves each lock's bridge on a fixed interval.
package igloohome

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"igloobridge/internal/clock"
	"igloobridge/internal/ha"
	cloud "igloobridge/internal/igloohome"
	"igloobridge/internal/lock"
	"igloobridge/internal/metrics"
	"igloobridge/internal/mqtt"
	"igloobridge/internal/sensor"
	"igloobridge/pkg/plugin"

	"go.uber.org/zap"
)

const (
	// PluginName is the registry name and the plugin field of host errors
	PluginName = "igloohome"

	setupTimeout   = 30 * time.Second
	refreshTimeout = 30 * time.Second
	commandTimeout = 30 * time.Second
)

// Manager owns the igloohome entities
type Manager struct {
	api          cloud.API
	publisher    mqtt.Publisher
	topics       mqtt.Topics
	notifier     ha.Notifier
	metrics      *metrics.Metrics
	logger       *zap.Logger
	readOnly     bool
	clock        clock.Clock
	scanInterval time.Duration

	// refreshMu serializes device list refreshes
	refreshMu sync.Mutex

	mu        sync.RWMutex
	locks     []*lock.Entity
	byID      map[string]*lock.Entity
	batteries []*sensor.Battery
	failed    map[string]bool
	timer     clock.Timer
	started   bool
	stopped   bool
}

// NewManager creates a new igloohome manager
func NewManager(api cloud.API, publisher mqtt.Publisher, topics mqtt.Topics, logger *zap.Logger, readOnly bool) *Manager {
	return &Manager{
		api:          api,
		publisher:    publisher,
		topics:       topics,
		logger:       logger.Named("igloohome"),
		readOnly:     readOnly,
		clock:        clock.NewRealClock(),
		scanInterval: lock.DefaultScanInterval,
		byID:         make(map[string]*lock.Entity),
		failed:       make(map[string]bool),
	}
}

// SetClock sets the clock implementation (useful for testing)
func (m *Manager) SetClock(c clock.Clock) {
	m.clock = c
}

// SetNotifier enables Home Assistant notifications for failed commands
func (m *Manager) SetNotifier(n ha.Notifier) {
	m.notifier = n
}

func (m *Manager) SetMetrics(mt *metrics.Metrics) {
	m.metrics = mt
}

// SetScanInterval changes the refresh interval. Non-positive values keep
// the default.
func (m *Manager) SetScanInterval(d time.Duration) {
	if d > 0 {
		m.scanInterval = d
	}
}

// Start discovers devices, exposes entities and schedules refreshes
func (m *Manager) Start() error {
	m.logger.Info("Starting igloohome Manager", zap.Bool("read_only", m.readOnly))

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	devices, err := m.api.GetDevices(ctx)
	if err != nil {
		return classifySetupError(err)
	}

	locks := lock.Setup(devices, m.api, m.logger, m.readOnly)
	batteries := sensor.Setup(devices)

	// Resolve availability before anything is exposed
	for _, e := range locks {
		e.Sync(devices)
	}
	for _, b := range batteries {
		b.Sync(devices)
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("igloohome manager already started")
	}
	m.started = true
	m.locks = locks
	m.batteries = batteries
	for _, e := range locks {
		m.byID[e.UniqueID()] = e
	}
	m.mu.Unlock()

	for _, e := range locks {
		m.publishLockDiscovery(e)
		m.publishLock(e)

		if err := m.publisher.Subscribe(m.topics.Command(e.UniqueID()), m.handleCommand); err != nil {
			m.abortStart()
			return fmt.Errorf("failed to subscribe to commands for %s: %w", e.UniqueID(), err)
		}
	}
	for _, b := range batteries {
		m.publishBatteryDiscovery(b)
		m.publishBattery(b)
	}

	m.schedule()

	m.logger.Info("igloohome Manager started successfully",
		zap.Int("locks", len(locks)),
		zap.Int("batteries", len(batteries)),
		zap.Duration("scan_interval", m.scanInterval))
	return nil
}

// Stop cancels the refresh timer, unsubscribes and marks entities offline
func (m *Manager) Stop() {
	m.logger.Info("Stopping igloohome Manager")

	m.mu.Lock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	locks := append([]*lock.Entity(nil), m.locks...)
	batteries := append([]*sensor.Battery(nil), m.batteries...)
	m.mu.Unlock()

	for _, e := range locks {
		if err := m.publisher.Unsubscribe(m.topics.Command(e.UniqueID())); err != nil {
			m.logger.Warn("Failed to unsubscribe", zap.String("unique_id", e.UniqueID()), zap.Error(err))
		}
		m.publish(m.topics.Availability(e.UniqueID()), mqtt.AvailabilityPayload(false))
	}
	for _, b := range batteries {
		m.publish(m.topics.Availability(b.UniqueID()), mqtt.AvailabilityPayload(false))
	}

	m.logger.Info("igloohome Manager stopped")
}

// abortStart undoes a partial Start: subscriptions are dropped, exposed
// entities go offline and the manager can be started again.
func (m *Manager) abortStart() {
	m.Stop()

	m.mu.Lock()
	m.started = false
	m.stopped = false
	m.locks = nil
	m.batteries = nil
	m.byID = make(map[string]*lock.Entity)
	m.mu.Unlock()
}

// Locks returns a snapshot of every lock entity in setup order
func (m *Manager) Locks() []lock.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]lock.Snapshot, 0, len(m.locks))
	for _, e := range m.locks {
		snapshots = append(snapshots, e.Snapshot())
	}
	return snapshots
}

// Command runs action on the lock with the given unique ID. Failures are
// counted and raised as a Home Assistant notification before being
// returned.
func (m *Manager) Command(ctx context.Context, uniqueID string, action lock.Action) error {
	m.mu.RLock()
	e, ok := m.byID[uniqueID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", plugin.ErrUnknownEntity, uniqueID)
	}

	err := e.Do(ctx, action)
	if errors.Is(err, plugin.ErrUnknownAction) {
		return err
	}

	m.observe(action, err)
	m.publishLock(e)

	if err != nil {
		m.logger.Error("Lock command failed",
			zap.String("unique_id", uniqueID),
			zap.String("action", string(action)),
			zap.Error(err))
		m.setFailed(uniqueID, true)
		m.notifyFailure(e, action, err)
		return err
	}

	if m.setFailed(uniqueID, false) {
		m.dismissFailure(uniqueID)
	}
	return nil
}

// setFailed records whether the last command for uniqueID failed and
// returns the previous value
func (m *Manager) setFailed(uniqueID string, failed bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.failed[uniqueID]
	if failed {
		m.failed[uniqueID] = true
	} else {
		delete(m.failed, uniqueID)
	}
	return previous
}

// Refresh fetches the device list once and applies it to every entity.
// A vendor failure makes all entities unavailable; other errors leave
// availability untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.RLock()
	locks := append([]*lock.Entity(nil), m.locks...)
	batteries := append([]*sensor.Battery(nil), m.batteries...)
	m.mu.RUnlock()

	devices, err := m.api.GetDevices(ctx)
	m.metrics.ObserveRefresh(err)
	switch {
	case cloud.IsVendorError(err):
		m.logger.Warn("Failed to refresh devices, marking entities unavailable", zap.Error(err))
		for _, e := range locks {
			e.SetAvailable(false)
		}
		for _, b := range batteries {
			b.SetAvailable(false)
		}
	case err != nil:
		m.logger.Warn("Failed to refresh devices", zap.Error(err))
	default:
		for _, e := range locks {
			e.Sync(devices)
		}
		for _, b := range batteries {
			b.Sync(devices)
		}
	}

	for _, e := range locks {
		m.publishLock(e)
	}
	for _, b := range batteries {
		m.publishBattery(b)
	}

	if err != nil {
		if cloud.IsVendorError(err) {
			return plugin.NewError(PluginName, "", "refresh", err)
		}
		return fmt.Errorf("failed to refresh devices: %w", err)
	}
	return nil
}

func (m *Manager) schedule() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.timer = m.clock.AfterFunc(m.scanInterval, m.tick)
}

func (m *Manager) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("Scheduled refresh failed", zap.Error(err))
	}
	m.schedule()
}

// handleCommand receives Home Assistant lock commands from MQTT
func (m *Manager) handleCommand(topic string, payload []byte) error {
	uniqueID, ok := m.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("unexpected command topic %q", topic)
	}

	var action lock.Action
	switch string(payload) {
	case mqtt.PayloadLock:
		action = lock.ActionLock
	case mqtt.PayloadUnlock:
		action = lock.ActionUnlock
	case mqtt.PayloadOpen:
		action = lock.ActionOpen
	default:
		return fmt.Errorf("%w: payload %q on %s", plugin.ErrUnknownAction, payload, topic)
	}

	m.logger.Debug("Received lock command",
		zap.String("unique_id", uniqueID),
		zap.String("action", string(action)))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	return m.Command(ctx, uniqueID, action)
}

func (m *Manager) observe(action lock.Action, err error) {
	if action == lock.ActionRefresh {
		m.metrics.ObserveRefresh(err)
		return
	}

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultFailure
	case m.readOnly:
		result = metrics.ResultReadOnly
	}
	m.metrics.ObserveJob(string(action), result)
}

func (m *Manager) notifyFailure(e *lock.Entity, action lock.Action, cause error) {
	if m.notifier == nil {
		return
	}

	n := ha.Notification{
		ID:      notificationID(e.UniqueID()),
		Title:   "igloohome",
		Message: fmt.Sprintf("%s: %s failed: %v", e.Name(), action, cause),
	}
	if err := m.notifier.CreateNotification(n); err != nil {
		m.logger.Warn("Failed to create notification", zap.Error(err))
	}
}

func (m *Manager) dismissFailure(uniqueID string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.DismissNotification(notificationID(uniqueID)); err != nil {
		m.logger.Warn("Failed to dismiss notification", zap.Error(err))
	}
}

func notificationID(uniqueID string) string {
	return "igloohome_" + uniqueID
}

func (m *Manager) publishLockDiscovery(e *lock.Entity) {
	topic := m.topics.Config(mqtt.ComponentLock, e.UniqueID())
	if err := mqtt.PublishJSON(m.publisher, topic, m.topics.NewLockConfig(e.UniqueID(), e.DeviceInfo()), true); err != nil {
		m.logger.Warn("Failed to publish discovery", zap.String("topic", topic), zap.Error(err))
	}
}

func (m *Manager) publishBatteryDiscovery(b *sensor.Battery) {
	topic := m.topics.Config(mqtt.ComponentSensor, b.UniqueID())
	if err := mqtt.PublishJSON(m.publisher, topic, m.topics.NewBatteryConfig(b.UniqueID(), b.DeviceInfo()), true); err != nil {
		m.logger.Warn("Failed to publish discovery", zap.String("topic", topic), zap.Error(err))
	}
}

// publishLock republishes assumed state and availability
func (m *Manager) publishLock(e *lock.Entity) {
	uniqueID := e.UniqueID()
	available := e.Available()

	m.publish(m.topics.State(uniqueID), []byte(lockStatePayload(e.State())))
	m.publish(m.topics.Availability(uniqueID), mqtt.AvailabilityPayload(available))
	m.metrics.SetAvailable(uniqueID, available)
}

func (m *Manager) publishBattery(b *sensor.Battery) {
	uniqueID := b.UniqueID()
	available := b.Available()

	if level, ok := b.Level(); ok {
		m.publish(m.topics.State(uniqueID), []byte(strconv.Itoa(level)))
		m.metrics.SetBatteryLevel(b.DeviceID(), level)
	}
	m.publish(m.topics.Availability(uniqueID), mqtt.AvailabilityPayload(available))
	m.metrics.SetAvailable(uniqueID, available)
}

func (m *Manager) publish(topic string, payload []byte) {
	if err := m.publisher.Publish(topic, payload, true); err != nil {
		m.logger.Warn("Failed to publish", zap.String("topic", topic), zap.Error(err))
	}
}

func lockStatePayload(s lock.State) string {
	switch s {
	case lock.StateLocked:
		return mqtt.StateLocked
	case lock.StateUnlocked:
		return mqtt.StateUnlocked
	default:
		return mqtt.PayloadReset
	}
}

func classifySetupError(err error) error {
	switch {
	case cloud.IsAuthError(err):
		return fmt.Errorf("%w: %w", ErrInvalidAuth, err)
	case cloud.IsVendorError(err):
		return fmt.Errorf("%w: %w", ErrCannotConnect, err)
	default:
		return fmt.Errorf("failed to fetch igloohome devices: %w", err)
	}
}
