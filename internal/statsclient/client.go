// Package statsclient talks to the stats service's HTTP API.
package statsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xtding233/gacha-sim/internal/stats"
)

const statsPath = "/api/stats"

// Client is an HTTP client for GET/POST /api/stats.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL (e.g. "http://localhost:3001").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Get fetches the counters.
func (c *Client) Get(ctx context.Context) (stats.Counters, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statsPath, nil)
	if err != nil {
		return stats.Counters{}, err
	}
	return c.do(req)
}

// Record posts one event and returns the counters after it.
func (c *Client) Record(ctx context.Context, ev stats.Event) (stats.Counters, error) {
	body := map[string]interface{}{"type": ev.Type}
	if ev.Type == stats.EventSpent {
		body["amount"] = ev.Amount
	}
	b, err := json.Marshal(body)
	if err != nil {
		return stats.Counters{}, fmt.Errorf("encode stats event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+statsPath, bytes.NewReader(b))
	if err != nil {
		return stats.Counters{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (stats.Counters, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return stats.Counters{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return stats.Counters{}, fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, e.Error)
	}

	var out stats.Counters
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return stats.Counters{}, fmt.Errorf("decode stats response: %w", err)
	}
	return out, nil
}
