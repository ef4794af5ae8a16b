package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/abhisek/recall/internal/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}
	log.WithField("learner", "L1").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["learner"] != "L1" || entry["msg"] != "hello" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := New(config.LogConfig{Format: "xml"}); err == nil {
		t.Error("expected error for bad format")
	}
}
