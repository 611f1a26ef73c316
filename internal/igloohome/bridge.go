package igloohome

// LinkedBridge returns the ID of the bridge that currently lists deviceID
// among its linked devices. The first matching bridge wins.
func LinkedBridge(deviceID string, devices []Device) (string, bool) {
	for _, device := range devices {
		if device.Type != DeviceTypeBridge {
			continue
		}
		for _, linked := range device.LinkedDevices {
			if linked.DeviceID == deviceID {
				return device.DeviceID, true
			}
		}
	}
	return "", false
}

// FindDevice returns the device with the given device ID
func FindDevice(deviceID string, devices []Device) (Device, bool) {
	for _, device := range devices {
		if device.DeviceID == deviceID {
			return device, true
		}
	}
	return Device{}, false
}

// FilterByType returns the devices of the given type, preserving order
func FilterByType(devices []Device, deviceType string) []Device {
	result := make([]Device, 0, len(devices))
	for _, device := range devices {
		if device.Type == deviceType {
			result = append(result, device)
		}
	}
	return result
}
