package master

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher defines the six reads that make up a dashboard snapshot.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	FetchTopology(ctx context.Context) (Topology, error)
	FetchConnections(ctx context.Context) ([]Connection, error)
	FetchContainers(ctx context.Context) ([]Container, error)
	FetchPorts(ctx context.Context) ([]Port, error)
	FetchAnomalies(ctx context.Context) ([]Anomaly, error)
	FetchStats(ctx context.Context) (Stats, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the network master HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultAPIBind is the master address used when none is configured.
	DefaultAPIBind        = "localhost:8000"
	defaultUserAgent      = "netscope/0.1"
	defaultRequestTimeout = 5 * time.Second
	maxResponseBytes      = 16 << 20
)

// NewClient builds a Client using the provided apiBind host:port or URL value.
// A zero timeout uses the default.
func NewClient(apiBind string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized REST base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PushURL returns the WebSocket endpoint that announces new data.
func (c *Client) PushURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

// FetchTopology retrieves the node/edge graph.
func (c *Client) FetchTopology(ctx context.Context) (Topology, error) {
	var payload Topology
	if err := c.get(ctx, EndpointTopology, &payload); err != nil {
		return Topology{}, err
	}
	return payload, nil
}

// FetchConnections retrieves active connections.
func (c *Client) FetchConnections(ctx context.Context) ([]Connection, error) {
	var payload ConnectionsResponse
	if err := c.get(ctx, EndpointConnections, &payload); err != nil {
		return nil, err
	}
	return payload.Connections, nil
}

// FetchContainers retrieves container inventory.
func (c *Client) FetchContainers(ctx context.Context) ([]Container, error) {
	var payload ContainersResponse
	if err := c.get(ctx, EndpointContainers, &payload); err != nil {
		return nil, err
	}
	return payload.Containers, nil
}

// FetchPorts retrieves open ports.
func (c *Client) FetchPorts(ctx context.Context) ([]Port, error) {
	var payload PortsResponse
	if err := c.get(ctx, EndpointPorts, &payload); err != nil {
		return nil, err
	}
	return payload.Ports, nil
}

// FetchAnomalies retrieves the anomaly feed.
func (c *Client) FetchAnomalies(ctx context.Context) ([]Anomaly, error) {
	var payload AnomaliesResponse
	if err := c.get(ctx, EndpointAnomalies, &payload); err != nil {
		return nil, err
	}
	return payload.Anomalies, nil
}

// FetchStats retrieves the headline counters.
func (c *Client) FetchStats(ctx context.Context) (Stats, error) {
	var payload Stats
	if err := c.get(ctx, EndpointStats, &payload); err != nil {
		return Stats{}, err
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, endpoint string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: endpoint}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(endpoint, 0, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return transportError(endpoint, resp.StatusCode,
			fmt.Errorf("api %s returned status %d", endpoint, resp.StatusCode))
	}

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := decoder.Decode(dest); err != nil {
		if ctx.Err() != nil {
			return transportError(endpoint, resp.StatusCode, fmt.Errorf("read response: %w", err))
		}
		return payloadError(endpoint, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = DefaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_bind %q: missing host", apiBind)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
