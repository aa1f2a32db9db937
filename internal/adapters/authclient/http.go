package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client calls the primary authentication backend over HTTP.
// The guard requests session termination and reverification email dispatch;
// everything else about principals stays with the backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("auth backend base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

func (c *Client) SignOut(ctx context.Context, principalID string, sessionID uuid.UUID) error {
	body := map[string]string{
		"principal_id": principalID,
		"session_id":   sessionID.String(),
	}
	return c.post(ctx, "/internal/v1/sessions/sign-out", body)
}

func (c *Client) SendReverification(ctx context.Context, principalID, token string) error {
	body := map[string]string{
		"principal_id": principalID,
		"token":        token,
	}
	return c.post(ctx, "/internal/v1/reverification/send", body)
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("auth backend call %s failed: status=%d body=%s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
