package state

import (
	"time"

	"github.com/netscope/netscope/internal/master"
)

// Snapshot is one complete, consistent view of the master. It is only ever
// replaced wholesale.
type Snapshot struct {
	Topology    master.Topology
	Connections []master.Connection
	Containers  []master.Container
	Ports       []master.Port
	Anomalies   []master.Anomaly
	Stats       master.Stats

	Sequence  uint64    // aggregation that produced it; zero for the initial empty snapshot
	FetchedAt time.Time // zero for the initial empty snapshot
}

// Empty returns the initial snapshot: every list present and empty.
func Empty() Snapshot {
	return Snapshot{}.Normalize()
}

// IsEmpty reports whether no aggregation has populated s yet.
func (s Snapshot) IsEmpty() bool {
	return s.Sequence == 0 && s.FetchedAt.IsZero()
}

// Normalize replaces missing lists with empty ones so consumers never see nil.
func (s Snapshot) Normalize() Snapshot {
	s.Topology.Nodes = nonNil(s.Topology.Nodes)
	s.Topology.Edges = nonNil(s.Topology.Edges)
	s.Connections = nonNil(s.Connections)
	s.Containers = nonNil(s.Containers)
	s.Ports = nonNil(s.Ports)
	s.Anomalies = nonNil(s.Anomalies)
	return s
}

// Clone returns a copy that shares no slices or maps with s.
func (s Snapshot) Clone() Snapshot {
	dup := s
	dup.Topology.Nodes = cloneSlice(s.Topology.Nodes)
	dup.Topology.Edges = cloneSlice(s.Topology.Edges)
	dup.Connections = cloneSlice(s.Connections)
	dup.Containers = cloneContainers(s.Containers)
	dup.Ports = cloneSlice(s.Ports)
	dup.Anomalies = cloneAnomalies(s.Anomalies)
	dup.Stats = s.Stats.Clone()
	return dup
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func cloneSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

func cloneContainers(items []master.Container) []master.Container {
	dup := cloneSlice(items)
	for i := range dup {
		dup[i].Ports = cloneSlice(dup[i].Ports)
		dup[i].Networks = cloneSlice(dup[i].Networks)
		if dup[i].Labels != nil {
			labels := make(map[string]string, len(dup[i].Labels))
			for k, v := range dup[i].Labels {
				labels[k] = v
			}
			dup[i].Labels = labels
		}
	}
	return dup
}

func cloneAnomalies(items []master.Anomaly) []master.Anomaly {
	dup := cloneSlice(items)
	for i := range dup {
		if dup[i].Details != nil {
			dup[i].Details = cloneJSONObject(dup[i].Details)
		}
	}
	return dup
}

// cloneJSONObject copies a decoded JSON object, descending into nested
// objects and arrays.
func cloneJSONObject(obj map[string]any) map[string]any {
	dup := make(map[string]any, len(obj))
	for k, v := range obj {
		dup[k] = cloneJSONValue(v)
	}
	return dup
}

func cloneJSONValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneJSONObject(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = cloneJSONValue(item)
		}
		return items
	default:
		return v
	}
}
