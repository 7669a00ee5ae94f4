// Package leadsclient talks to the leads HTTP API and its SSE change streams.
package leadsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"basegraph.app/leads/common/id"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/viewsync"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("leads api: %d %s", e.StatusCode, e.Message)
}

// Is lets callers match 404s with errors.Is(err, viewsync.ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == viewsync.ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Timeout must be zero or
// streams will be cut off.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 15 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	if err := c.getJSON(ctx, "/leads", &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *Client) GetLead(ctx context.Context, leadID int64) (*model.Lead, error) {
	var lead model.Lead
	if err := c.getJSON(ctx, "/leads/"+id.Format(leadID), &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *Client) ListMessages(ctx context.Context, leadID int64) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.getJSON(ctx, "/leads/"+id.Format(leadID)+"/messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func streamPath(filter changefeed.Filter) string {
	if filter.LeadID != nil {
		return "/leads/" + id.Format(*filter.LeadID) + "/stream"
	}
	return "/leads/stream"
}

var _ viewsync.Source = (*Client)(nil)

// errStreamEnded is reported when the server closes a stream without saying
// why.
var errStreamEnded = errors.New("change stream ended")
