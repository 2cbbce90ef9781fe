package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/standardbeagle/hashsvc/internal/config"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
)

// Client connects to a running HashServer
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a client for the default socket path
func NewClient() *Client {
	return NewClientWithSocket(config.DefaultSocketPath())
}

// NewClientWithSocket creates a client for a custom socket path. Loads can
// take minutes on a cold cache, hence the long timeout.
func NewClientWithSocket(socketPath string) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 10 * time.Minute,
	}

	return &Client{
		httpClient: httpClient,
		socketPath: socketPath,
	}
}

// SocketPath returns the socket this client dials
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// IsServerRunning checks if the server is accessible
func (c *Client) IsServerRunning() bool {
	_, err := c.Ping()
	return err == nil
}

// call posts req (nil for an empty body) to path and decodes into resp
func (c *Client) call(path string, req, resp interface{}) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpResp, err := c.httpClient.Post("http://unix"+path, "application/json", body)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("server error: %s", bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ping sends a health check to the server
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.call("/ping", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the table state and sizes
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoadHashes forces a sync and load. A failed load is reported through
// Success/Message, not the error.
func (c *Client) LoadHashes() (*LoadHashesResponse, error) {
	var resp LoadHashesResponse
	if err := c.call("/load", LoadHashesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetString looks up hash. A load failure is returned as an error; a load
// already in progress as *errors.BusyError.
func (c *Client) GetString(hash uint64, hashtableType string) (*GetStringResponse, error) {
	var resp GetStringResponse
	if err := c.call("/get", GetStringRequest{Hash: hash, HashtableType: hashtableType}, &resp); err != nil {
		return nil, err
	}
	if resp.Busy {
		return nil, svcerrors.NewBusyError("get")
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

// UnloadHashes clears the tables
func (c *Client) UnloadHashes() (*UnloadHashesResponse, error) {
	var resp UnloadHashesResponse
	if err := c.call("/unload", UnloadHashesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddHash hashes s with the table's algorithm and inserts it
func (c *Client) AddHash(s, hashtableType string) (*AddHashResponse, error) {
	var resp AddHashResponse
	if err := c.call("/add", AddHashRequest{String: s, HashtableType: hashtableType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the server to exit
func (c *Client) Shutdown(force bool) error {
	var resp ShutdownResponse
	if err := c.call("/shutdown", ShutdownRequest{Force: force}, &resp); err != nil {
		return fmt.Errorf("failed to shutdown: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("shutdown failed: %s", resp.Message)
	}
	return nil
}

// WaitForReady polls until the server answers pings
func (c *Client) WaitForReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if c.IsServerRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server on %s", c.socketPath)
		case <-ticker.C:
		}
	}
}
