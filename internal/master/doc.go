// Package master provides an HTTP client for the network master REST API.
//
// # Overview
//
// The master aggregates agent reports (connections, containers, open ports)
// and publishes them through six read-only JSON endpoints. This package
// models those payloads and performs the reads; it does not decide when to
// read or how results are combined (see package aggregate).
//
// # Client Usage
//
//	client, err := master.NewClient("localhost:8000", 5*time.Second)
//	if err != nil {
//		return err
//	}
//	topo, err := client.FetchTopology(ctx)
//
// # API Endpoints
//
//   - GET /api/topology: {nodes: [...], edges: [...]}
//   - GET /api/connections: {connections: [...]}
//   - GET /api/containers: {containers: [...]}
//   - GET /api/ports: {ports: [...]}
//   - GET /api/anomalies: {anomalies: [...]}
//   - GET /api/stats: {total_connections, total_containers, total_ports, ...}
//
// PushURL derives the WebSocket endpoint (/ws) from the same base address.
//
// # Error Handling
//
// Every failed read returns a *Error naming the endpoint and a kind:
//
//   - transport: connection refused, timeout, non-2xx status
//   - payload: the body was not the expected JSON shape
//
// Callers can use errors.Is(err, master.ErrTransport) or ErrPayload.
package master
