package gateway

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

// Client implements Gateway over HTTP against the upstream service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search implements Gateway.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	resp, err := c.post(ctx, "/search", map[string]string{"query": query})
	if err != nil {
		return SearchResult{}, err
	}

	var result SearchResult
	if err := decodeJSON(resp, &result); err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// Instruct implements Gateway.
func (c *Client) Instruct(ctx context.Context, instruction string) (InstructResult, error) {
	resp, err := c.post(ctx, "/process", map[string]string{"instruction": instruction})
	if err != nil {
		return InstructResult{}, err
	}

	var result InstructResult
	if err := decodeJSON(resp, &result); err != nil {
		return InstructResult{}, fmt.Errorf("instruct: %w", err)
	}
	return result, nil
}

// Reset implements Gateway.
func (c *Client) Reset(ctx context.Context) error {
	resp, err := c.post(ctx, "/clear-session", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("reset: upstream returned %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream not reachable: %w", err)
	}
	return resp, nil
}

// decodeJSON drains the response, turning any non-success status into an
// error. When the error body carries a human-readable detail message it is
// used verbatim.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("upstream returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		if detail := errorDetail(body); detail != "" {
			return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// errorDetail pulls an optional {"error": "..."} message out of a failure
// body. Anything else non-empty is passed through as-is.
func errorDetail(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
