package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if lines != nil {
		t.Fatalf("Read() = %v, want nil", lines)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Entry
		summary string
	}{
		{
			name:    "console line",
			input:   "10:01:02 INF Sync engine started",
			want:    Entry{Message: "10:01:02 INF Sync engine started", Raw: "10:01:02 INF Sync engine started"},
			summary: "10:01:02 INF Sync engine started",
		},
		{
			name:    "malformed json",
			input:   `{"level":`,
			want:    Entry{Message: `{"level":`, Raw: `{"level":`},
			summary: `{"level":`,
		},
		{
			name:  "json with fields",
			input: `{"level":"warn","component":"engine","seq":7,"source":"poll","error":"boom","time":"2026-01-02T03:04:05Z","message":"Aggregation failed"}`,
			want: Entry{
				Time:      "2026-01-02T03:04:05Z",
				Level:     "WARN",
				Component: "engine",
				Message:   "Aggregation failed",
				Error:     "boom",
				Fields:    []Field{{"seq", "7"}, {"source", "poll"}},
				Raw:       `{"level":"warn","component":"engine","seq":7,"source":"poll","error":"boom","time":"2026-01-02T03:04:05Z","message":"Aggregation failed"}`,
			},
			summary: "[engine] Aggregation failed error=boom seq=7 source=poll",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
			if s := got.Summary(); s != tt.summary {
				t.Errorf("Summary() = %q, want %q", s, tt.summary)
			}
		})
	}
}
