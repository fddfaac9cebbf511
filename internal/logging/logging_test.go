package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"", LevelInfo, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf, Prefix: "test"})

	l.WithComponent("session").
		WithField("instance", 7).
		WithFields(map[string]any{"kind": "compile"}).
		Warn("effect rejected: %s", "bad")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	checks := map[string]any{
		"level":     "warn",
		"message":   "effect rejected: bad",
		"app":       "test",
		"component": "session",
		"instance":  float64(7),
		"kind":      "compile",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("field %q = %v, expected %v", k, entry[k], want)
		}
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Output: &buf})
	l.WithError(errors.New("boom")).Error("failed")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["error"] != "boom" {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatConsole, Output: &buf})
	l.Info("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.WithField("a", 1).Error("nothing")
}

func TestValidFormat(t *testing.T) {
	if !ValidFormat(FormatJSON) || !ValidFormat(FormatConsole) || ValidFormat("xml") {
		t.Error("ValidFormat misclassified a format")
	}
}
