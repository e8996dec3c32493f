package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

// Client reads classified messages from the inbox API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client. token is sent as a bearer token when non-empty.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Messages calls GET /messages. A response carrying a category outside the
// taxonomy is rejected.
func (c *Client) Messages(ctx context.Context) ([]inbox.ClassifiedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var msgs []inbox.ClassifiedMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, m := range msgs {
		if !inbox.Known(m.Category) {
			return nil, fmt.Errorf("message %s: unknown category %q", m.ID, m.Category)
		}
	}
	return msgs, nil
}
