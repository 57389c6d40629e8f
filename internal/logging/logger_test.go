package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WARN, false)
	logger.SetOutput(&buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN should be dropped:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and ERROR should be logged:\n%s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(INFO, true)
	logger.SetOutput(&buf)

	logger.Info("job started", map[string]interface{}{"run_id": "run-1"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Level != "INFO" || entry.Message != "job started" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["run_id"] != "run-1" {
		t.Errorf("missing run_id field: %+v", entry.Fields)
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(INFO, true)
	logger.SetOutput(&buf)

	child := logger.WithField("run_id", "run-2")
	child.Info("checkpoint")

	if !strings.Contains(buf.String(), "run-2") {
		t.Errorf("attached field missing:\n%s", buf.String())
	}

	buf.Reset()
	logger.Info("no fields")
	if strings.Contains(buf.String(), "run-2") {
		t.Error("WithField must not mutate the parent logger")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DEBUG || ParseLevel("ERROR") != ERROR {
		t.Error("explicit levels should parse")
	}
	if ParseLevel("bogus") != INFO {
		t.Error("unknown levels should default to INFO")
	}
}
