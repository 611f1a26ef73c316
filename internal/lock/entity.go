// Package lock implements the igloohome lock entity. The vendor API cannot
// report whether a lock is engaged, so entities run on assumed state: the
// last successful command. Commands are sent as bridge-proxied jobs through
// whichever bridge is currently linked to the lock.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igloobridge/internal/entity"
	"igloobridge/internal/igloohome"
	"igloobridge/pkg/plugin"

	"go.uber.org/zap"
)

// UniqueKey prefixes lock entity unique IDs
const UniqueKey = "lock"

// DefaultScanInterval is how often the linked bridge is re-resolved
const DefaultScanInterval = time.Hour

// pluginName is used in host errors raised by lock entities
const pluginName = "igloohome"

// State is the assumed lock state
type State string

const (
	StateUnknown  State = "unknown"
	StateLocked   State = "locked"
	StateUnlocked State = "unlocked"
)

// Feature is a bit set of optional lock capabilities
type Feature int

const (
	FeatureOpen Feature = 1 << iota
)

// Action is a command accepted by Entity
type Action string

const (
	ActionLock    Action = "lock"
	ActionUnlock  Action = "unlock"
	ActionOpen    Action = "open"
	ActionRefresh Action = "refresh"
)

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionLock, ActionUnlock, ActionOpen, ActionRefresh:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", plugin.ErrUnknownAction, s)
	}
}

// Snapshot is a point-in-time view of an entity
type Snapshot struct {
	UniqueID     string `json:"unique_id"`
	DeviceID     string `json:"device_id"`
	Name         string `json:"name"`
	BridgeID     string `json:"bridge_id"`
	Available    bool   `json:"available"`
	AssumedState bool   `json:"assumed_state"`
	State        State  `json:"state"`
}

// Entity is a lock reachable through a bridge
type Entity struct {
	*entity.Base

	api      igloohome.API
	logger   *zap.Logger
	readOnly bool

	mu       sync.RWMutex
	bridgeID string
	state    State
}

// NewEntity creates a lock entity that sends jobs through bridgeID
func NewEntity(device igloohome.Device, api igloohome.API, bridgeID string, logger *zap.Logger, readOnly bool) *Entity {
	return &Entity{
		Base:     entity.NewBase(device, UniqueKey),
		api:      api,
		logger:   logger.Named("lock").With(zap.String("device_id", device.DeviceID)),
		readOnly: readOnly,
		bridgeID: bridgeID,
		state:    StateUnknown,
	}
}

// AssumedState is always true: there is no API to query lock state
func (e *Entity) AssumedState() bool {
	return true
}

func (e *Entity) SupportedFeatures() Feature {
	return FeatureOpen
}

// BridgeID returns the bridge currently used for jobs
func (e *Entity) BridgeID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bridgeID
}

func (e *Entity) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Entity) Snapshot() Snapshot {
	e.mu.RLock()
	bridgeID, state := e.bridgeID, e.state
	e.mu.RUnlock()

	return Snapshot{
		UniqueID:     e.UniqueID(),
		DeviceID:     e.DeviceID(),
		Name:         e.Name(),
		BridgeID:     bridgeID,
		Available:    e.Available(),
		AssumedState: e.AssumedState(),
		State:        state,
	}
}

// Lock engages the lock
func (e *Entity) Lock(ctx context.Context) error {
	return e.sendJob(ctx, ActionLock, igloohome.JobLock, StateLocked)
}

// Unlock releases the lock
func (e *Entity) Unlock(ctx context.Context) error {
	return e.sendJob(ctx, ActionUnlock, igloohome.JobUnlock, StateUnlocked)
}

// Open unlatches the lock. The API has no separate unlatch job, so this
// sends an unlock job.
func (e *Entity) Open(ctx context.Context) error {
	return e.sendJob(ctx, ActionOpen, igloohome.JobUnlock, StateUnlocked)
}

// Do dispatches action to the matching method
func (e *Entity) Do(ctx context.Context, action Action) error {
	switch action {
	case ActionLock:
		return e.Lock(ctx)
	case ActionUnlock:
		return e.Unlock(ctx)
	case ActionOpen:
		return e.Open(ctx)
	case ActionRefresh:
		return e.Update(ctx)
	default:
		return fmt.Errorf("%w: %q", plugin.ErrUnknownAction, action)
	}
}

func (e *Entity) sendJob(ctx context.Context, action Action, job igloohome.JobType, next State) error {
	bridgeID := e.BridgeID()

	if e.readOnly {
		e.logger.Info("READ-ONLY: Would send bridge job",
			zap.String("action", string(action)),
			zap.String("bridge_id", bridgeID),
			zap.Stringer("job", job))
		return nil
	}

	if err := e.api.CreateBridgeProxiedJob(ctx, e.DeviceID(), bridgeID, job); err != nil {
		return translate(string(action), e.UniqueID(), err)
	}

	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	e.logger.Info("Bridge job sent",
		zap.String("action", string(action)),
		zap.String("bridge_id", bridgeID))
	return nil
}

// Update re-fetches the device list and re-resolves the linked bridge.
// A vendor failure marks the entity unavailable and is returned as a host
// error; other errors leave availability untouched.
func (e *Entity) Update(ctx context.Context) error {
	devices, err := e.api.GetDevices(ctx)
	if err != nil {
		err = translate(string(ActionRefresh), e.UniqueID(), err)
		if plugin.IsHostError(err) {
			e.SetAvailable(false)
		}
		return err
	}

	e.Sync(devices)
	return nil
}

// Sync applies an already-fetched device list. The entity is available
// exactly when some bridge lists it as linked.
func (e *Entity) Sync(devices []igloohome.Device) {
	deviceID := e.DeviceID()

	if device, ok := igloohome.FindDevice(deviceID, devices); ok {
		e.SetDevice(device)
	}

	bridgeID, ok := igloohome.LinkedBridge(deviceID, devices)
	if !ok {
		if e.Available() {
			e.logger.Warn("No bridge linked to lock, marking unavailable")
		}
		e.SetAvailable(false)
		return
	}

	e.mu.Lock()
	previous := e.bridgeID
	e.bridgeID = bridgeID
	e.mu.Unlock()

	if previous != bridgeID {
		e.logger.Info("Linked bridge changed",
			zap.String("old_bridge_id", previous),
			zap.String("new_bridge_id", bridgeID))
	}
	e.SetAvailable(true)
}

// translate converts vendor failures into host errors
func translate(op, uniqueID string, err error) error {
	if igloohome.IsVendorError(err) {
		return plugin.NewError(pluginName, uniqueID, op, err)
	}
	return err
}
