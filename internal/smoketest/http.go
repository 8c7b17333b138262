package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient wraps http.Client with a per-request timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// getJSON performs a GET and decodes the service envelope into data.
// It returns the HTTP status code so callers can branch on 202.
func (c *httpClient) getJSON(ctx context.Context, url string, data any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices || data == nil {
		return resp.StatusCode, nil
	}

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding envelope: %w", err)
	}
	if !env.Success {
		return resp.StatusCode, fmt.Errorf("request failed: %s", env.Error)
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding payload: %w", err)
	}
	return resp.StatusCode, nil
}

// postJSON performs a POST with a JSON body and decodes the envelope.
func (c *httpClient) postJSON(ctx context.Context, url string, reqBody, data any) (int, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshaling request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if data == nil {
		return resp.StatusCode, nil
	}

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding envelope: %w", err)
	}
	if !env.Success {
		return resp.StatusCode, fmt.Errorf("request failed: %s", env.Error)
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding payload: %w", err)
	}
	return resp.StatusCode, nil
}
