// Package api is a small client for the data hub HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil hc gets a client
// with a 15 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Login(ctx context.Context, name, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.post(ctx, "/api/v1/collector-auth", "", map[string]string{
		"action":   "login",
		"name":     name,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCollector registers a collector. adminToken is the platform admin
// bearer token.
func (c *Client) CreateCollector(ctx context.Context, adminToken, name, password string) error {
	return c.post(ctx, "/api/v1/collector-auth", adminToken, map[string]string{
		"action":   "create",
		"name":     name,
		"password": password,
	}, nil)
}

func (c *Client) Fetch(ctx context.Context, token string) (*CollectorData, error) {
	var out CollectorData
	if err := c.post(ctx, "/api/v1/collector-data", "", map[string]string{"token": token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBatch(ctx context.Context, token string) (*BatchResult, error) {
	var out BatchResult
	err := c.post(ctx, "/api/v1/collector-data", "", map[string]string{
		"token":  token,
		"action": "create_batch",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit sends a submission and returns its id.
func (c *Client) Submit(ctx context.Context, req SubmissionRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/api/v1/submissions", "", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
