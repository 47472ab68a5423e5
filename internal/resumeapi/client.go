package resumeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a remote resumes API and implements Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client rooted at baseURL (e.g. http://host/api/v1).
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("GATEWAY_URL is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// Create posts a new resume.
func (c *Client) Create(ctx context.Context, payload Payload) (Resource, error) {
	var env ResumeEnvelope
	if err := c.do(ctx, http.MethodPost, "/resumes", payload, &env); err != nil {
		return Resource{}, err
	}
	return env.Resume, nil
}

// Update applies a partial update to an existing resume.
func (c *Client) Update(ctx context.Context, id string, payload Payload) (Resource, error) {
	if strings.TrimSpace(id) == "" {
		return Resource{}, fmt.Errorf("%w: id is required", ErrRejected)
	}
	var env ResumeEnvelope
	if err := c.do(ctx, http.MethodPut, "/resumes/"+url.PathEscape(id), payload, &env); err != nil {
		return Resource{}, err
	}
	return env.Resume, nil
}

// Get fetches a resume with its documents and latest versions.
func (c *Client) Get(ctx context.Context, id string) (Resource, error) {
	var env ResumeEnvelope
	if err := c.do(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id), nil, &env); err != nil {
		return Resource{}, err
	}
	return env.Resume, nil
}

// Delete removes a resume and everything attached to it.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/resumes/"+url.PathEscape(id), nil, nil)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resumes api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("resumes api read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Code != "" {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("resumes api response parse: %w", err)
	}
	return nil
}

var _ Gateway = (*Client)(nil)
