package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"  hello  ", 10, "hello"},
		{"hello", 0, ""},
		{"hello", 3, "hel"},
		{"hello world", 8, "hello..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdefgh", 6); got != "abc..." {
		t.Fatalf("padRight truncating = %q", got)
	}
	if got := padRight("x", 0); got != "" {
		t.Fatalf("padRight zero width = %q", got)
	}
}

func TestFormatEndpoint(t *testing.T) {
	cases := []struct {
		ip   string
		port int
		want string
	}{
		{"10.0.0.1", 80, "10.0.0.1:80"},
		{"fe80::1", 443, "[fe80::1]:443"},
		{"10.0.0.1", 0, "10.0.0.1"},
		{"", 22, "?:22"},
	}
	for _, tc := range cases {
		if got := formatEndpoint(tc.ip, tc.port); got != tc.want {
			t.Fatalf("formatEndpoint(%q, %d) = %q, want %q", tc.ip, tc.port, got, tc.want)
		}
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := formatAgo(time.Time{}, now); got != "never" {
		t.Fatalf("zero time = %q", got)
	}
	if got := formatAgo(now.Add(-200*time.Millisecond), now); got != "just now" {
		t.Fatalf("sub-second = %q", got)
	}
	if got := formatAgo(now.Add(-3*time.Minute), now); got != "3 minutes ago" {
		t.Fatalf("minutes = %q", got)
	}
}

func TestFormatSizes(t *testing.T) {
	if got := formatBytes(-5); got != "0 B" {
		t.Fatalf("formatBytes(-5) = %q", got)
	}
	if got := formatRate(1500); got != "1.5 kB/s" {
		t.Fatalf("formatRate(1500) = %q", got)
	}
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("formatCount = %q", got)
	}
}
