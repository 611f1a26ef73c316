package testutil

import "time"

// JobRequest records a bridge-proxied job received by the mock cloud
type JobRequest struct {
	Timestamp time.Time
	DeviceID  string
	BridgeID  string
	JobType   int
}

// FilterJobs returns the jobs sent to a given device
func FilterJobs(jobs []JobRequest, deviceID string) []JobRequest {
	var filtered []JobRequest
	for _, job := range jobs {
		if job.DeviceID == deviceID {
			filtered = append(filtered, job)
		}
	}
	return filtered
}

// LastJob returns the most recent job for a device, or nil
func LastJob(jobs []JobRequest, deviceID string) *JobRequest {
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].DeviceID == deviceID {
			job := jobs[i]
			return &job
		}
	}
	return nil
}
