package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(Config{Level: "debug", Format: "json"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("NewWithSink: %v", err)
	}
	logger.Debug("wrote source")
	logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decoding %q: %v", buf.String(), err)
	}
	if entry["msg"] != "wrote source" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "debug" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(Config{Level: "warn"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Sync()

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn entry missing")
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for bad format")
	}
}
