package igloohome

import "fmt"

// Device types reported by the igloohome API
const (
	DeviceTypeLock   = "Lock"
	DeviceTypeBridge = "Bridge"
	DeviceTypeKeypad = "Keypad"
)

// JobType identifies a bridge-proxied job
type JobType int

const (
	JobLock   JobType = 1
	JobUnlock JobType = 2
)

func (j JobType) String() string {
	switch j {
	case JobLock:
		return "lock"
	case JobUnlock:
		return "unlock"
	default:
		return fmt.Sprintf("job(%d)", int(j))
	}
}

// LinkedDevice is a reference from one device to another (bridge -> lock)
type LinkedDevice struct {
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
}

// Device represents a device entry returned by GET /devices
type Device struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	DeviceID      string         `json:"deviceId"`
	DeviceName    string         `json:"deviceName"`
	PairedAt      string         `json:"pairedAt"`
	HomeID        []string       `json:"homeId"`
	LinkedDevices []LinkedDevice `json:"linkedDevices"`
	BatteryLevel  *int           `json:"batteryLevel,omitempty"`
}

// DevicesResponse is one page of the device listing
type DevicesResponse struct {
	NextCursor string   `json:"nextCursor"`
	Payload    []Device `json:"payload"`
}

// jobRequest is the body of a bridge-proxied job request
type jobRequest struct {
	JobType JobType `json:"jobType"`
}
