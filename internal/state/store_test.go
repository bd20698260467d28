package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/netscope/netscope/internal/master"
)

func sampleSnapshot(conns int) Snapshot {
	snap := Snapshot{
		Topology: master.Topology{
			Nodes: []master.Node{{ID: "backend"}, {ID: "db"}},
			Edges: []master.Edge{{Source: "backend", Target: "db", Bytes: 10}},
		},
		Containers: []master.Container{{ID: "abc1", Labels: map[string]string{"app": "api"}}},
		Ports:      []master.Port{{Port: 8000, Container: "backend"}},
		Anomalies:  []master.Anomaly{{Severity: "LOW", Details: map[string]any{"count": 55}}},
		Stats:      master.Stats{TotalConnections: conns},
	}
	for i := 0; i < conns; i++ {
		snap.Connections = append(snap.Connections, master.Connection{SrcPort: 1000 + i})
	}
	return snap
}

func TestStore_ZeroValueSnapshotHasEmptyLists(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if !snap.IsEmpty() {
		t.Fatalf("IsEmpty = false, want true for initial snapshot")
	}
	if snap.Connections == nil || snap.Containers == nil || snap.Ports == nil || snap.Anomalies == nil {
		t.Fatalf("initial snapshot has nil lists: %#v", snap)
	}
	if snap.Topology.Nodes == nil || snap.Topology.Edges == nil {
		t.Fatalf("initial topology has nil lists: %#v", snap.Topology)
	}
	if s.Connectivity() != Disconnected {
		t.Fatalf("Connectivity = %v, want disconnected", s.Connectivity())
	}
}

func TestStore_ApplyAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	if !s.Apply(1, sampleSnapshot(2)) {
		t.Fatalf("Apply(1) = false, want true")
	}

	snap := s.Snapshot()
	if snap.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1", snap.Sequence)
	}
	if len(snap.Connections) != 2 || snap.Stats.TotalConnections != 2 {
		t.Fatalf("snapshot = %#v, want 2 connections", snap)
	}
	if snap.FetchedAt.Before(before) {
		t.Fatalf("FetchedAt = %v, want >= %v", snap.FetchedAt, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Connections[0].SrcPort = 1
	snap.Containers[0].Labels["app"] = "changed"
	snap.Anomalies[0].Details["count"] = 0
	snap.Topology.Nodes[0].ID = "mutated"

	again := s.Snapshot()
	if again.Connections[0].SrcPort != 1000 {
		t.Fatalf("Snapshot should clone connections; got %d want 1000", again.Connections[0].SrcPort)
	}
	if again.Containers[0].Labels["app"] != "api" {
		t.Fatalf("Snapshot should clone container labels; got %q", again.Containers[0].Labels["app"])
	}
	if again.Anomalies[0].Details["count"] != 55 {
		t.Fatalf("Snapshot should clone anomaly details; got %v", again.Anomalies[0].Details["count"])
	}
	if again.Topology.Nodes[0].ID != "backend" {
		t.Fatalf("Snapshot should clone topology; got %q", again.Topology.Nodes[0].ID)
	}
}

func TestStore_ApplyClonesInput(t *testing.T) {
	var s Store

	in := sampleSnapshot(1)
	s.Apply(1, in)
	in.Connections[0].SrcPort = 1

	if got := s.Snapshot().Connections[0].SrcPort; got != 1000 {
		t.Fatalf("stored snapshot aliased caller slice; got %d want 1000", got)
	}
}

func TestStore_ApplyNormalizesMissingLists(t *testing.T) {
	var s Store

	s.Apply(1, Snapshot{Stats: master.Stats{TotalConnections: 42}})
	snap := s.Snapshot()
	if snap.Stats.TotalConnections != 42 {
		t.Fatalf("TotalConnections = %d, want 42", snap.Stats.TotalConnections)
	}
	if snap.Connections == nil || len(snap.Connections) != 0 {
		t.Fatalf("Connections = %#v, want empty non-nil", snap.Connections)
	}
	if snap.Topology.Nodes == nil || snap.Topology.Edges == nil {
		t.Fatalf("Topology lists nil: %#v", snap.Topology)
	}
}

func TestStore_OlderSequenceIsDiscarded(t *testing.T) {
	var s Store

	// B (seq 2) completes first, then A (seq 1) completes late.
	if !s.Apply(2, sampleSnapshot(2)) {
		t.Fatalf("Apply(2) = false, want true")
	}
	if s.Apply(1, sampleSnapshot(1)) {
		t.Fatalf("Apply(1) after Apply(2) = true, want false")
	}
	if s.Apply(2, sampleSnapshot(5)) {
		t.Fatalf("Apply(2) twice = true, want false")
	}

	snap := s.Snapshot()
	if snap.Sequence != 2 || len(snap.Connections) != 2 {
		t.Fatalf("snapshot = seq %d with %d conns, want seq 2 with 2", snap.Sequence, len(snap.Connections))
	}
	if st := s.Status(); st.Discarded != 2 || st.AppliedSequence != 2 {
		t.Fatalf("status = %#v, want Discarded=2 AppliedSequence=2", st)
	}
}

func TestStore_FailKeepsPreviousData(t *testing.T) {
	var s Store

	s.Apply(1, sampleSnapshot(1))
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Fail(2, origErr)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap, prev) {
		t.Fatalf("snapshot changed on failure:\n got %#v\nwant %#v", snap, prev)
	}
	st := s.Status()
	if st.LastError == nil || st.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", st.LastError)
	}
	if reflect.ValueOf(st.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Status should clone error instance")
	}
	if !errors.Is(st.LastError, origErr) {
		t.Fatalf("Status error should wrap the original")
	}
}

func TestStore_FailOlderThanAppliedIgnored(t *testing.T) {
	var s Store

	s.Apply(3, sampleSnapshot(1))
	s.Fail(2, errors.New("late failure"))

	if st := s.Status(); st.LastError != nil || st.ConsecutiveFailures != 0 {
		t.Fatalf("status = %#v, want late failure ignored", st)
	}
}

func TestStore_ConsecutiveFailuresAndStaleness(t *testing.T) {
	var s Store

	s.Apply(1, sampleSnapshot(1))
	fresh := s.Status().LastSuccess

	s.Fail(2, errors.New("fail 1"))
	st := s.Status()
	if st.ConsecutiveFailures != 1 || st.IsStale() {
		t.Fatalf("after 1 failure: failures=%d stale=%v, want 1/false", st.ConsecutiveFailures, st.IsStale())
	}
	if !st.StaleSince().IsZero() {
		t.Fatalf("StaleSince = %v, want zero when not stale", st.StaleSince())
	}

	s.Fail(3, errors.New("fail 2"))
	st = s.Status()
	if !st.IsStale() {
		t.Fatal("IsStale() = false, want true with 2 failures")
	}
	if !st.StaleSince().Equal(fresh) {
		t.Fatalf("StaleSince = %v, want %v", st.StaleSince(), fresh)
	}

	// Success resets the counter.
	s.Apply(4, sampleSnapshot(1))
	st = s.Status()
	if st.ConsecutiveFailures != 0 || st.IsStale() || st.LastError != nil {
		t.Fatalf("status after success = %#v, want reset", st)
	}
}

func TestStore_SubscribeNotifiesAndCoalesces(t *testing.T) {
	var s Store

	ch, cancel := s.Subscribe()
	defer cancel()

	s.Apply(1, sampleSnapshot(1))
	s.Apply(2, sampleSnapshot(2))
	s.SetConnectivity(Connected)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Apply")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce into one pending value")
	default:
	}

	s.SetConnectivity(Connected) // unchanged, no notification
	select {
	case <-ch:
		t.Fatal("unchanged connectivity should not notify")
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	cancel() // idempotent
}

func TestStore_SealDropsLateResults(t *testing.T) {
	var s Store

	ch, _ := s.Subscribe()
	s.Apply(1, sampleSnapshot(1))
	s.SetConnectivity(Connected)
	<-ch

	s.Seal()
	s.Seal()

	if s.Apply(2, sampleSnapshot(3)) {
		t.Fatal("Apply after Seal = true, want false")
	}
	s.Fail(3, errors.New("late"))
	s.SetConnectivity(Connected)

	if got := s.Snapshot().Sequence; got != 1 {
		t.Fatalf("Sequence after Seal = %d, want 1", got)
	}
	if s.Connectivity() != Disconnected {
		t.Fatalf("Connectivity after Seal = %v, want disconnected", s.Connectivity())
	}
	if s.Status().LastError != nil {
		t.Fatalf("Fail after Seal should be ignored")
	}
	if _, ok := <-ch; ok {
		t.Fatal("subscription should be closed by Seal")
	}

	late, _ := s.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("Subscribe after Seal should return a closed channel")
	}
}

func TestConnectivity_String(t *testing.T) {
	if Connected.String() != "connected" || Disconnected.String() != "disconnected" {
		t.Fatalf("String = %q/%q", Connected.String(), Disconnected.String())
	}
}

func TestStore_OlderSuccessKeepsNewerFailure(t *testing.T) {
	var s Store

	// seq 2 fails first, then the slower seq 1 succeeds.
	s.Fail(2, errors.New("newer failure"))
	if !s.Apply(1, sampleSnapshot(1)) {
		t.Fatal("Apply(1) = false, want true")
	}

	st := s.Status()
	if st.ConsecutiveFailures != 1 || st.LastError == nil {
		t.Fatalf("status = %#v, want newer failure kept", st)
	}

	// A success newer than the failure clears it.
	s.Apply(3, sampleSnapshot(1))
	if st := s.Status(); st.ConsecutiveFailures != 0 || st.LastError != nil {
		t.Fatalf("status after newer success = %#v, want reset", st)
	}
}

func TestSnapshot_CloneCopiesNestedDetails(t *testing.T) {
	var s Store

	in := sampleSnapshot(0)
	in.Anomalies[0].Details = map[string]any{
		"peer":  map[string]any{"ip": "10.0.0.5"},
		"ports": []any{float64(22), map[string]any{"port": float64(443)}},
	}
	s.Apply(1, in)

	first := s.Snapshot()
	first.Anomalies[0].Details["peer"].(map[string]any)["ip"] = "mutated"
	first.Anomalies[0].Details["ports"].([]any)[0] = float64(0)
	first.Anomalies[0].Details["ports"].([]any)[1].(map[string]any)["port"] = float64(0)

	got := s.Snapshot().Anomalies[0].Details
	if ip := got["peer"].(map[string]any)["ip"]; ip != "10.0.0.5" {
		t.Fatalf("nested object shared between copies: ip = %v", ip)
	}
	ports := got["ports"].([]any)
	if ports[0] != float64(22) || ports[1].(map[string]any)["port"] != float64(443) {
		t.Fatalf("nested array shared between copies: %v", ports)
	}

	// The caller's input is not aliased either.
	in.Anomalies[0].Details["peer"].(map[string]any)["ip"] = "caller"
	if ip := s.Snapshot().Anomalies[0].Details["peer"].(map[string]any)["ip"]; ip != "10.0.0.5" {
		t.Fatalf("stored details alias caller input: ip = %v", ip)
	}
}
