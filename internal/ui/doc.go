// Package ui renders the netscope dashboard with Bubble Tea.
//
// The model holds no data of its own. It subscribes to a Source (the sync
// engine), and on every change notification copies the current snapshot,
// connectivity and status out of it before re-rendering. Keys only choose
// what to show, with one exception: "r" asks the source for a manual
// refresh.
//
// Views:
//
//   - Topology: nodes and traffic edges
//   - Connections: sockets ordered by bytes transferred
//   - Containers, Ports, Anomalies: the matching snapshot lists
//   - Logs: tail of the netscope log file, following by default
//
// The header shows a LIVE or DISCONNECTED badge for the push channel, the
// headline counters from the stats endpoint, and either the snapshot age or
// "STALE since T" once aggregations keep failing.
//
// Theme and tab selections are saved through the prefs package.
package ui
