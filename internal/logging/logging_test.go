package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func captureStderr(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stderr
	stderr = &buf
	t.Cleanup(func() {
		stderr = prev
		Shutdown()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
	return &buf
}

func TestInit_JSONToStderr(t *testing.T) {
	buf := captureStderr(t)

	logger := Init(Config{Format: "json", Level: "debug", Stderr: true})
	logger.Debug().Str("component", "engine").Msg("hello")

	var event map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if event["level"] != "debug" || event["message"] != "hello" || event["component"] != "engine" {
		t.Fatalf("unexpected event %v", event)
	}
	if _, ok := event["time"]; !ok {
		t.Fatalf("event missing time: %v", event)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	buf := captureStderr(t)

	logger := Init(Config{Format: "json", Level: "warn", Stderr: true})
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}
	logger.Warn().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn not logged: %q", buf.String())
	}
}

func TestInit_FileOnly(t *testing.T) {
	buf := captureStderr(t)
	path := filepath.Join(t.TempDir(), "nested", "netscope.log")

	logger := Init(Config{Format: "console", Level: "info", FilePath: path})
	logger.Info().Msg("to file")
	Shutdown()

	if buf.Len() != 0 {
		t.Fatalf("stderr written in file-only mode: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("log file = %q, want message", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Fatalf("log file contains color codes: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	captureStderr(t)
	tests := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
