package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("debug message", nil)
	logger.Info("info message", nil)
	logger.Warn("warn message", nil)
	logger.Error("error message", nil)

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn level were emitted: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn/error messages missing: %q", out)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})

	logger.Info("request", map[string]interface{}{"tree": "mozilla-central"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "request" {
		t.Errorf("message = %v, want %q", entry["message"], "request")
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["tree"] != "mozilla-central" {
		t.Errorf("fields = %v, want tree=mozilla-central", entry["fields"])
	}
}

func TestLoggerHumanFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: &buf})

	logger.Info("loaded", map[string]interface{}{"trees": 2})

	out := buf.String()
	if !strings.Contains(out, "[info] loaded") {
		t.Errorf("human output missing level/message: %q", out)
	}
	if !strings.Contains(out, "trees=2") {
		t.Errorf("human output missing fields: %q", out)
	}
}
