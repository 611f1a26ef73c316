package lock

import (
	"igloobridge/internal/igloohome"

	"go.uber.org/zap"
)

// Setup creates an entity for every lock that has a linked bridge.
// Locks without a bridge cannot receive jobs and are skipped.
func Setup(devices []igloohome.Device, api igloohome.API, logger *zap.Logger, readOnly bool) []*Entity {
	entities := make([]*Entity, 0)

	for _, device := range igloohome.FilterByType(devices, igloohome.DeviceTypeLock) {
		bridgeID, ok := igloohome.LinkedBridge(device.DeviceID, devices)
		if !ok {
			logger.Info("Skipping lock without linked bridge",
				zap.String("device_id", device.DeviceID),
				zap.String("name", device.DeviceName))
			continue
		}
		entities = append(entities, NewEntity(device, api, bridgeID, logger, readOnly))
	}

	return entities
}
