// Package push maintains the WebSocket connection the master uses to
// announce new data.
//
// A Channel dials /ws, reports open and close transitions to its Listener
// and turns snapshot_update and initial_snapshot messages into refresh
// requests. Every other message type is ignored. After an unexpected close
// it reconnects with capped exponential backoff and jitter; Close or a
// cancelled context stops it for good, and no Listener callback fires once
// Close has returned. The backoff only starts over once a connection has
// stayed open for Options.StableAfter.
//
// The channel only ever says "something changed". Data is always read over
// REST by the aggregator.
package push
