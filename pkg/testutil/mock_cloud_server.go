// Package testutil provides testing utilities for the igloohome integration.
// It contains a mock igloohome cloud (OAuth2 token endpoint plus the device
// and bridge job endpoints) for end-to-end tests of the API client and
// plugin.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"igloobridge/internal/igloohome"
)

const accessToken = "mock-access-token"

// MockCloudServer simulates the igloohome cloud API
type MockCloudServer struct {
	server       *httptest.Server
	clientID     string
	clientSecret string

	mu           sync.Mutex
	devices      []igloohome.Device
	pageSize     int
	jobs         []JobRequest
	deviceStatus int
	jobStatus    int
	tokenCalls   int
}

// NewMockCloudServer starts a mock cloud accepting the given credentials
func NewMockCloudServer(clientID, clientSecret string) *MockCloudServer {
	s := &MockCloudServer{
		clientID:     clientID,
		clientSecret: clientSecret,
		jobs:         make([]JobRequest, 0),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", s.handleToken)
	mux.HandleFunc("/devices", s.handleDevices)
	mux.HandleFunc("/devices/", s.handleDevice)

	s.server = httptest.NewServer(mux)
	return s
}

// Close stops the server
func (s *MockCloudServer) Close() {
	s.server.Close()
}

// BaseURL returns the API base URL
func (s *MockCloudServer) BaseURL() string {
	return s.server.URL
}

// TokenURL returns the OAuth2 token endpoint URL
func (s *MockCloudServer) TokenURL() string {
	return s.server.URL + "/oauth2/token"
}

// Options returns client options pointing at this server
func (s *MockCloudServer) Options() igloohome.Options {
	return igloohome.Options{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		BaseURL:      s.BaseURL(),
		TokenURL:     s.TokenURL(),
		Timeout:      2 * time.Second,
	}
}

// SetDevices replaces the device list
func (s *MockCloudServer) SetDevices(devices ...igloohome.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = devices
}

// SetPageSize enables cursor pagination on GET /devices (0 disables)
func (s *MockCloudServer) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = size
}

// FailDevices makes device endpoints answer with status (0 to clear)
func (s *MockCloudServer) FailDevices(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceStatus = status
}

// FailJobs makes the job endpoint answer with status (0 to clear)
func (s *MockCloudServer) FailJobs(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobStatus = status
}

// GetJobs returns all jobs received
func (s *MockCloudServer) GetJobs() []JobRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobRequest, len(s.jobs))
	copy(jobs, s.jobs)
	return jobs
}

// ClearJobs clears the recorded jobs
func (s *MockCloudServer) ClearJobs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make([]JobRequest, 0)
}

// TokenCalls returns how many tokens were issued
func (s *MockCloudServer) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls
}

func (s *MockCloudServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != s.clientID || secret != s.clientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	s.mu.Lock()
	s.tokenCalls++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *MockCloudServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+accessToken
}

func (s *MockCloudServer) handleDevices(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	status := s.deviceStatus
	devices := append([]igloohome.Device(nil), s.devices...)
	pageSize := s.pageSize
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}

	resp := igloohome.DevicesResponse{Payload: devices}
	if pageSize > 0 {
		start, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
		if start > len(devices) {
			start = len(devices)
		}
		end := start + pageSize
		if end < len(devices) {
			resp.NextCursor = strconv.Itoa(end)
		} else {
			end = len(devices)
		}
		resp.Payload = devices[start:end]
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDevice serves /devices/{id} and /devices/{id}/jobs/bridges/{bridgeId}
func (s *MockCloudServer) handleDevice(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/devices/"), "/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGetDevice(w, parts[0])
	case len(parts) == 4 && parts[1] == "jobs" && parts[2] == "bridges" && r.Method == http.MethodPost:
		s.handleJob(w, r, parts[0], parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (s *MockCloudServer) handleGetDevice(w http.ResponseWriter, deviceID string) {
	s.mu.Lock()
	status := s.deviceStatus
	device, ok := igloohome.FindDevice(deviceID, s.devices)
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Device not found"})
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (s *MockCloudServer) handleJob(w http.ResponseWriter, r *http.Request, deviceID, bridgeID string) {
	var body struct {
		JobType int `json:"jobType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	status := s.jobStatus
	if status == 0 {
		s.jobs = append(s.jobs, JobRequest{
			Timestamp: time.Now(),
			DeviceID:  deviceID,
			BridgeID:  bridgeID,
			JobType:   body.JobType,
		})
	}
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobId": "job-" + deviceID})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
