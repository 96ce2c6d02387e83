package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/zetalabs/teliads/internal/logger"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (line: %s)", err, buf.String())
	}
	return entry
}

func TestLoggerEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "teliads")

	log.Info("Credential source loaded", map[string]interface{}{
		"source": "passkeys",
		"bytes":  120,
	})

	entry := logLine(t, &buf)
	if entry["message"] != "Credential source loaded" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["service"] != "teliads" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
	if entry["source"] != "passkeys" {
		t.Errorf("expected source field, got %v", entry["source"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected info level, got %v", entry["level"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestWithComponentTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "teliads").WithComponent("sheets")

	log.Debug("Next empty row determined")

	entry := logLine(t, &buf)
	if entry["component"] != "sheets" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
}

func TestWithFieldsAndWithError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "teliads").
		WithFields(map[string]interface{}{"ad_id": "a1"})

	log.Warn("Invalid spend value, recording as 0")

	entry := logLine(t, &buf)
	if entry["ad_id"] != "a1" {
		t.Errorf("expected ad_id field, got %v", entry["ad_id"])
	}
	if entry["level"] != "warn" {
		t.Errorf("expected warn level, got %v", entry["level"])
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := logger.Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "debug" {
		t.Errorf("expected debug default level, got %q", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected json default format, got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected stdout default output, got %q", cfg.Output)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := logger.Config{Level: "verbose", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown level")
	}

	cfg = logger.Config{Level: "debug", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}

	cfg = logger.Config{Level: "debug", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
