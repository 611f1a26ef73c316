// Package igloohome is a client for the igloohome cloud API. Locks are not
// reachable directly; every command is submitted as a job that a linked
// bridge forwards to the lock.
package igloohome

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultBaseURL  = "https://api.igloodeveloper.co/igloohome"
	DefaultTokenURL = "https://auth.igloohome.co/oauth2/token"
	DefaultTimeout  = 10 * time.Second

	// maxErrorBody bounds how much of an error response is kept in APIError
	maxErrorBody = 4096
)

// API is the subset of the igloohome API used by the integration
type API interface {
	GetDevices(ctx context.Context) ([]Device, error)
	GetDevice(ctx context.Context, deviceID string) (*Device, error)
	CreateBridgeProxiedJob(ctx context.Context, deviceID, bridgeID string, job JobType) error
}

// Options configures a Client
type Options struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration

	// HTTPClient, if set, is used for both token and API requests
	HTTPClient *http.Client
}

// Client implements API over HTTPS with OAuth2 client credentials
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new igloohome API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	creds := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       opts.Scopes,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.Named("igloohome-api"),
	}
}

// GetDevices returns every device on the account, following pagination
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	seen := make(map[string]bool)
	cursor := ""

	for {
		query := url.Values{}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var page DevicesResponse
		if err := c.do(ctx, "get devices", http.MethodGet, "/devices", query, nil, &page); err != nil {
			return nil, err
		}
		devices = append(devices, page.Payload...)

		if page.NextCursor == "" || seen[page.NextCursor] {
			break
		}
		seen[page.NextCursor] = true
		cursor = page.NextCursor
	}

	c.logger.Debug("Fetched devices", zap.Int("count", len(devices)))
	return devices, nil
}

// GetDevice returns a single device
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	var device Device
	path := "/devices/" + url.PathEscape(deviceID)
	if err := c.do(ctx, "get device", http.MethodGet, path, nil, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// CreateBridgeProxiedJob asks bridgeID to run job against deviceID
func (c *Client) CreateBridgeProxiedJob(ctx context.Context, deviceID, bridgeID string, job JobType) error {
	path := fmt.Sprintf("/devices/%s/jobs/bridges/%s", url.PathEscape(deviceID), url.PathEscape(bridgeID))
	op := "create " + job.String() + " job"

	if err := c.do(ctx, op, http.MethodPost, path, nil, jobRequest{JobType: job}, nil); err != nil {
		return err
	}

	c.logger.Debug("Bridge job created",
		zap.String("device_id", deviceID),
		zap.String("bridge_id", bridgeID),
		zap.Stringer("job", job))
	return nil
}

// do performs a request against the API and decodes the JSON response into out
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Token endpoint rejections come back wrapped in the transport error
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return &APIError{
				Op:         op,
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       strings.TrimSpace(string(retrieveErr.Body)),
			}
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
