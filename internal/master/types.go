package master

import (
	"encoding/json"
	"time"
)

// REST endpoints exposed by the master.
const (
	EndpointTopology    = "/api/topology"
	EndpointConnections = "/api/connections"
	EndpointContainers  = "/api/containers"
	EndpointPorts       = "/api/ports"
	EndpointAnomalies   = "/api/anomalies"
	EndpointStats       = "/api/stats"
)

// Endpoints lists every snapshot source in display order.
var Endpoints = []string{
	EndpointTopology,
	EndpointConnections,
	EndpointContainers,
	EndpointPorts,
	EndpointAnomalies,
	EndpointStats,
}

// Topology mirrors /api/topology.
type Topology struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a host or service in the topology graph.
type Node struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	IP             string `json:"ip"`
	Status         string `json:"status"`
	Classification string `json:"classification"`
}

// Edge is a directed traffic relation between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Bytes  int64  `json:"bytes"`
}

// ConnectionsResponse mirrors /api/connections.
type ConnectionsResponse struct {
	Connections []Connection `json:"connections"`
}

// Connection is a socket observed by an agent.
type Connection struct {
	SrcIP       string `json:"src_ip"`
	SrcPort     int    `json:"src_port"`
	DstIP       string `json:"dst_ip"`
	DstPort     int    `json:"dst_port"`
	State       string `json:"state"`
	BytesSent   int64  `json:"bytes_sent"`
	BytesRecv   int64  `json:"bytes_recv"`
	Container   string `json:"container,omitempty"`
	ProcessName string `json:"process_name,omitempty"`
}

// ContainersResponse mirrors /api/containers.
type ContainersResponse struct {
	Containers []Container `json:"containers"`
}

// Container describes a Docker container seen by an agent.
type Container struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	IPAddress string            `json:"ip_address"`
	Ports     []string          `json:"ports"`
	Networks  []string          `json:"networks"`
	Status    string            `json:"status"`
	Labels    map[string]string `json:"labels"`
}

// PortsResponse mirrors /api/ports.
type PortsResponse struct {
	Ports []Port `json:"ports"`
}

// Port is an open listening port and its owner.
type Port struct {
	Port      int    `json:"port"`
	Container string `json:"container"`
}

// AnomaliesResponse mirrors /api/anomalies.
type AnomaliesResponse struct {
	Anomalies []Anomaly `json:"anomalies"`
}

// Anomaly is an event flagged by the master.
type Anomaly struct {
	Timestamp string         `json:"timestamp"`
	Severity  string         `json:"severity"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (a Anomaly) ParsedTime() time.Time {
	return parseTime(a.Timestamp)
}

// Stats mirrors /api/stats. Keys outside the known set are kept in Extra.
type Stats struct {
	TotalConnections int                        `json:"total_connections"`
	TotalContainers  int                        `json:"total_containers"`
	TotalPorts       int                        `json:"total_ports"`
	BytesInPerSec    float64                    `json:"bytes_in_per_sec"`
	BytesOutPerSec   float64                    `json:"bytes_out_per_sec"`
	Extra            map[string]json.RawMessage `json:"-"`
}

var knownStatsKeys = map[string]struct{}{
	"total_connections": {},
	"total_containers":  {},
	"total_ports":       {},
	"bytes_in_per_sec":  {},
	"bytes_out_per_sec": {},
}

// UnmarshalJSON decodes the known counters and preserves everything else.
func (s *Stats) UnmarshalJSON(data []byte) error {
	type plain Stats
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Stats(known)
	s.Extra = nil
	for key, value := range raw {
		if _, ok := knownStatsKeys[key]; ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[key] = value
	}
	return nil
}

// Clone returns a copy that shares no mutable state with s.
func (s Stats) Clone() Stats {
	dup := s
	if s.Extra != nil {
		dup.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			dup.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return dup
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
