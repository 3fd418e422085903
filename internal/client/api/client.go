// Package api implements the HTTP client for the actilog server. Transport
// failures and 5xx responses map to ErrUnavailable, 401/403 map to
// ErrUnauthorized, so callers can branch with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	requestTimeout = 15 * time.Second
	pingTimeout    = 3 * time.Second
)

// Client is a thread-safe API client. The bearer token is set after login
// and attached to every subsequent request.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New builds a client for the given base URL (scheme://host[:port]).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken installs the access token used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current access token, empty before login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Ping probes server reachability with a short deadline.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Login authenticates and installs the returned access token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// SubmitEntry records a single entry directly.
func (c *Client) SubmitEntry(ctx context.Context, payload EntryPayload) (*Entry, error) {
	var out struct {
		Message string `json:"message"`
		Entry   Entry  `json:"entry"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/entries", payload, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// Sync replays queued drafts as one batch and returns the server manifest.
func (c *Client) Sync(ctx context.Context, items []SyncItem) (*SyncManifest, error) {
	body := map[string][]SyncItem{"entries": items}
	var out SyncManifest
	if err := c.do(ctx, http.MethodPost, "/api/sync", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Entries fetches one page of the caller's entries, newest first.
func (c *Client) Entries(ctx context.Context, page, perPage int) (*EntryPage, error) {
	path := fmt.Sprintf("/api/entries?page=%d&per_page=%d", page, perPage)
	var out EntryPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches today's counters for the authenticated user.
func (c *Client) Stats(ctx context.Context) (*TodayStats, error) {
	var out TodayStats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Courtiers lists the active courtiers.
func (c *Client) Courtiers(ctx context.Context) ([]Courtier, error) {
	var out struct {
		Courtiers []Courtier `json:"courtiers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/courtiers", nil, &out); err != nil {
		return nil, err
	}
	return out.Courtiers, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return mapError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// mapError translates an error response into a sentinel-wrapped error,
// keeping the server's message when it sent one.
func mapError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if body.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, body.Error)
		}
		return ErrUnauthorized
	case resp.StatusCode >= http.StatusInternalServerError:
		if body.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnavailable, body.Error)
		}
		return ErrUnavailable
	default:
		if body.Error != "" {
			return errors.New(body.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
}
