package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("run.completed", map[string]any{"run_id": "run-1", "duration_ms": 12.5})

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "info" || payload["msg"] != "run.completed" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["run_id"] != "run-1" {
		t.Fatalf("expected run_id field, got %v", payload["run_id"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts field")
	}
}

func TestReservedFieldsWin(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Error("boom", map[string]any{"level": "debug", "msg": "shadow"})

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "error" || payload["msg"] != "boom" {
		t.Fatalf("reserved fields overwritten: %v", payload)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Debug("d", nil)
	Info("i", nil)
	Warn("w", nil)
	Error("e", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"msg":"w"`) || !strings.Contains(lines[1], `"msg":"e"`) {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithMergesFields(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	log := With(map[string]any{"run_id": "r1", "task": "base"})
	log.Warn("coach.step", map[string]any{"task": "jobs", "err": errors.New("boom")})

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["run_id"] != "r1" || payload["task"] != "jobs" || payload["err"] != "boom" || payload["level"] != "warn" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}
