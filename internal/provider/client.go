package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a REST client for the voice-AI provider.
//
// Rules:
// - API keys are tenant-scoped and passed per call; the client holds none.
// - Keep request/response types provider-shaped; normalization happens in
//   internal/normalize and internal/relay, not here.
type Client struct {
	baseURL string
	http    *http.Client
}

const defaultTimeout = 15 * time.Second

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

var ErrNotFound = errors.New("provider: not found")

// ListCalls fetches recent calls for the tenant owning apiKey. The provider
// caps limit at 1000. The list endpoint omits transcripts; use GetCall for
// full details.
func (c *Client) ListCalls(ctx context.Context, apiKey string, limit int) ([]Call, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	u := fmt.Sprintf("%s/call?limit=%s", c.baseURL, url.QueryEscape(strconv.Itoa(limit)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusErr("list calls", resp)
	}

	// The provider returns either a bare array or {"results": [...]}.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var calls []Call
	if err := json.Unmarshal(body, &calls); err == nil {
		return calls, nil
	}
	var wrapped struct {
		Results []Call `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("provider: decode call list: %w", err)
	}
	return wrapped.Results, nil
}

// GetCall fetches a single call with full details (transcript included).
func (c *Client) GetCall(ctx context.Context, apiKey, callID string) (Call, error) {
	u := fmt.Sprintf("%s/call/%s", c.baseURL, url.PathEscape(callID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Call{}, err
	}
	c.setHeaders(req, apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Call{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Call{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Call{}, statusErr("get call", resp)
	}

	var call Call
	if err := json.NewDecoder(resp.Body).Decode(&call); err != nil {
		return Call{}, fmt.Errorf("provider: decode call: %w", err)
	}
	return call, nil
}

// EndCall terminates a live call at the provider (DELETE /call/{id}).
func (c *Client) EndCall(ctx context.Context, apiKey, callID string) error {
	u := fmt.Sprintf("%s/call/%s", c.baseURL, url.PathEscape(callID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusErr("end call", resp)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func statusErr(op string, resp *http.Response) error {
	// Bodies on error paths are short; keep a snippet for logs.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("provider: %s: status %d: %s", op, resp.StatusCode, string(snippet))
}
