package master

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStats_UnmarshalKeepsUnknownKeys(t *testing.T) {
	var s Stats
	data := []byte(`{"total_connections": 42, "total_ports": 3, "bytes_out_per_sec": 8000.5, "dns_queries": 17, "hostname": "edge-1"}`)
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if s.TotalConnections != 42 || s.TotalPorts != 3 || s.BytesOutPerSec != 8000.5 {
		t.Fatalf("Stats = %#v, want known fields decoded", s)
	}
	if len(s.Extra) != 2 {
		t.Fatalf("Extra = %v, want 2 unknown keys", s.Extra)
	}
	if string(s.Extra["dns_queries"]) != "17" {
		t.Fatalf("Extra[dns_queries] = %s, want 17", s.Extra["dns_queries"])
	}
	if _, ok := s.Extra["total_connections"]; ok {
		t.Fatalf("Extra should not contain known keys")
	}
}

func TestStats_UnmarshalRejectsNonObject(t *testing.T) {
	var s Stats
	if err := json.Unmarshal([]byte(`[1,2]`), &s); err == nil {
		t.Fatalf("Unmarshal returned nil error, want error for array payload")
	}
}

func TestStats_CloneIsIndependent(t *testing.T) {
	s := Stats{TotalPorts: 1, Extra: map[string]json.RawMessage{"a": json.RawMessage("1")}}
	dup := s.Clone()
	dup.Extra["a"][0] = '9'
	dup.Extra["b"] = json.RawMessage("2")
	if string(s.Extra["a"]) != "1" || len(s.Extra) != 1 {
		t.Fatalf("Clone shares state with original: %v", s.Extra)
	}
}

func TestAnomaly_ParsedTime(t *testing.T) {
	a := Anomaly{Timestamp: "2025-12-13T10:11:12Z"}
	got := a.ParsedTime()
	if got.Year() != 2025 || got.Month() != time.December || got.Day() != 13 {
		t.Fatalf("ParsedTime = %v, want 2025-12-13", got)
	}
	if !(Anomaly{Timestamp: "yesterday"}).ParsedTime().IsZero() {
		t.Fatalf("ParsedTime should return zero time for unparseable values")
	}
}
