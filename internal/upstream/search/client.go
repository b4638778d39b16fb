package search

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

// Document is one search hit with its page text.
type Document struct {
	Title string `json:"title"`
	Text  string `json:"content"`
}

// Client talks to an Exa-style search API and returns page contents for a
// free-text query.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient builds a search client.
func NewClient(baseURL, apiKey string, maxResults int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	Query      string         `json:"query"`
	NumResults int            `json:"numResults"`
	Contents   searchContents `json:"contents"`
}

type searchContents struct {
	Text bool `json:"text"`
}

type searchResponse struct {
	Results []struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"results"`
}

// Search runs the query and returns the hit documents.
func (c *Client) Search(ctx context.Context, query string) ([]Document, error) {
	payload, err := json.Marshal(searchRequest{
		Query:      query,
		NumResults: c.maxResults,
		Contents:   searchContents{Text: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search API not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	docs := make([]Document, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		docs = append(docs, Document{Title: r.Title, Text: r.Text})
	}
	return docs, nil
}
