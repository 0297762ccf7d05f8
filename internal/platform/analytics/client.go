// Package analytics sends fire-and-forget measurement events to the Google
// Analytics Measurement Protocol. Delivery failures are logged and swallowed;
// analytics must never affect request handling.
package analytics

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

	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://www.google-analytics.com/mp/collect"
	defaultTimeout  = 5 * time.Second
)

// Event is a single measurement event.
type Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

type payload struct {
	ClientID string  `json:"client_id"`
	Events   []Event `json:"events"`
}

// HTTPDoer issues HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configure the client.
type Options struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	HTTPClient    HTTPDoer
	Logger        *zap.Logger
}

// Client ships events to the collection endpoint. A zero-configured client is
// disabled and drops every event silently.
type Client struct {
	measurementID string
	apiSecret     string
	endpoint      string
	http          HTTPDoer
	logger        *zap.Logger
}

// NewClient constructs an analytics client. Missing credentials produce a
// disabled client rather than an error.
func NewClient(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		measurementID: strings.TrimSpace(opts.MeasurementID),
		apiSecret:     strings.TrimSpace(opts.APISecret),
		endpoint:      endpoint,
		http:          httpClient,
		logger:        logger,
	}
}

// Enabled reports whether the client holds credentials to deliver events.
func (c *Client) Enabled() bool {
	return c != nil && c.measurementID != "" && c.apiSecret != ""
}

// Send delivers the events for clientID synchronously. Errors are returned for
// callers that want them; SendAsync is the usual entry point.
func (c *Client) Send(ctx context.Context, clientID string, events ...Event) error {
	if !c.Enabled() {
		return nil
	}
	if clientID == "" || len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(payload{ClientID: clientID, Events: events})
	if err != nil {
		return fmt.Errorf("analytics: encode payload: %w", err)
	}

	target := fmt.Sprintf("%s?measurement_id=%s&api_secret=%s",
		c.endpoint, url.QueryEscape(c.measurementID), url.QueryEscape(c.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: deliver: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analytics: collection endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// SendAsync delivers the events on a fresh goroutine detached from the request
// context. Failures are logged at warn level and never propagated.
func (c *Client) SendAsync(clientID string, events ...Event) {
	if !c.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := c.Send(ctx, clientID, events...); err != nil {
			c.logger.Warn("analytics delivery failed", zap.Error(err))
		}
	}()
}

// PageView builds the standard page view event.
func PageView(path string, title string) Event {
	params := map[string]any{"page_location": path}
	if title != "" {
		params["page_title"] = title
	}
	return Event{Name: "page_view", Params: params}
}
