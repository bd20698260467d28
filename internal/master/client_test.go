package master

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != DefaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, DefaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	u, err = parseBaseURL("wss://master.example:443")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
}

func TestParseBaseURL_MissingHost(t *testing.T) {
	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL returned nil error, want missing host error")
	}
}

func TestClient_PushURL(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"localhost:8000", "ws://localhost:8000/ws"},
		{"http://10.0.0.5:9000/api", "ws://10.0.0.5:9000/ws"},
		{"https://master.example", "wss://master.example/ws"},
	}
	for _, tt := range tests {
		c, err := NewClient(tt.bind, 0)
		if err != nil {
			t.Fatalf("NewClient(%q) returned error: %v", tt.bind, err)
		}
		if got := c.PushURL(); got != tt.want {
			t.Errorf("PushURL(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case EndpointTopology:
			_ = json.NewEncoder(w).Encode(Topology{
				Nodes: []Node{{ID: "backend", IP: "172.18.0.2"}, {ID: "db"}},
				Edges: []Edge{{Source: "backend", Target: "db", Bytes: 10000}},
			})
		case EndpointConnections:
			_ = json.NewEncoder(w).Encode(ConnectionsResponse{Connections: []Connection{{SrcIP: "172.18.0.3", DstPort: 8000, State: "ESTABLISHED"}}})
		case EndpointContainers:
			_ = json.NewEncoder(w).Encode(ContainersResponse{Containers: []Container{{ID: "abc1", Name: "backend"}}})
		case EndpointPorts:
			_ = json.NewEncoder(w).Encode(PortsResponse{Ports: []Port{{Port: 8000, Container: "backend"}}})
		case EndpointAnomalies:
			_ = json.NewEncoder(w).Encode(AnomaliesResponse{Anomalies: []Anomaly{{Severity: "LOW", Type: "Connection Spike"}}})
		case EndpointStats:
			_, _ = w.Write([]byte(`{"total_connections": 2, "total_containers": 2, "total_ports": 2, "bytes_in_per_sec": 12000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	topo, err := c.FetchTopology(ctx)
	if err != nil {
		t.Fatalf("FetchTopology returned error: %v", err)
	}
	if len(topo.Nodes) != 2 || len(topo.Edges) != 1 || topo.Edges[0].Bytes != 10000 {
		t.Fatalf("FetchTopology = %#v, want 2 nodes 1 edge", topo)
	}

	conns, err := c.FetchConnections(ctx)
	if err != nil {
		t.Fatalf("FetchConnections returned error: %v", err)
	}
	if len(conns) != 1 || conns[0].DstPort != 8000 {
		t.Fatalf("FetchConnections = %#v, want 1 connection to 8000", conns)
	}

	containers, err := c.FetchContainers(ctx)
	if err != nil {
		t.Fatalf("FetchContainers returned error: %v", err)
	}
	if len(containers) != 1 || containers[0].Name != "backend" {
		t.Fatalf("FetchContainers = %#v, want backend", containers)
	}

	ports, err := c.FetchPorts(ctx)
	if err != nil {
		t.Fatalf("FetchPorts returned error: %v", err)
	}
	if len(ports) != 1 || ports[0].Port != 8000 {
		t.Fatalf("FetchPorts = %#v, want port 8000", ports)
	}

	anomalies, err := c.FetchAnomalies(ctx)
	if err != nil {
		t.Fatalf("FetchAnomalies returned error: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].Severity != "LOW" {
		t.Fatalf("FetchAnomalies = %#v, want LOW anomaly", anomalies)
	}

	stats, err := c.FetchStats(ctx)
	if err != nil {
		t.Fatalf("FetchStats returned error: %v", err)
	}
	if stats.TotalConnections != 2 || stats.BytesInPerSec != 12000 {
		t.Fatalf("FetchStats = %#v, want totals decoded", stats)
	}

	if gotUserAgent == "" || !strings.HasPrefix(gotUserAgent, "netscope/") {
		t.Fatalf("User-Agent = %q, want netscope/*", gotUserAgent)
	}
}

func TestClient_MissingListFieldDecodesToNil(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	conns, err := c.FetchConnections(context.Background())
	if err != nil {
		t.Fatalf("FetchConnections returned error: %v", err)
	}
	if len(conns) != 0 {
		t.Fatalf("FetchConnections = %#v, want empty", conns)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EndpointStats:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case EndpointPorts:
			http.Error(w, "nope", http.StatusInternalServerError)
		case EndpointConnections:
			_, _ = w.Write([]byte(`{"connections": "oops"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchStats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStats error = %v, want decode response error", err)
	}
	if !errors.Is(err, ErrPayload) {
		t.Fatalf("FetchStats error = %v, want ErrPayload", err)
	}

	_, err = c.FetchPorts(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchPorts error = %v, want status 500 error", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("FetchPorts error = %v, want ErrTransport", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError || apiErr.Endpoint != EndpointPorts {
		t.Fatalf("FetchPorts error = %#v, want *Error for %s with status 500", err, EndpointPorts)
	}

	_, err = c.FetchConnections(context.Background())
	if !errors.Is(err, ErrPayload) {
		t.Fatalf("FetchConnections error = %v, want ErrPayload", err)
	}
}

func TestClient_UnreachableIsTransportError(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchTopology(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("FetchTopology error = %v, want ErrTransport", err)
	}
}
