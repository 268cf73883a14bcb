package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"empty defaults to info", "", slog.LevelInfo, false},
		{"info", "info", slog.LevelInfo, false},
		{"debug", "debug", slog.LevelDebug, false},
		{"trace", "trace", LevelTrace, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"fatal", "fatal", LevelFatal, false},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug, false},
		{"mixed case Warn", "Warn", slog.LevelWarn, false},
		{"unknown is an error", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevel_AcceptsAllLevelNames(t *testing.T) {
	for _, name := range LevelNames {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", name, err)
		}
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		logAtDebug bool
		logAtInfo  bool
		logAtError bool
	}{
		{"info filters debug", slog.LevelInfo, false, true, true},
		{"debug passes debug", slog.LevelDebug, true, true, true},
		{"error filters info", slog.LevelError, false, false, true},
		{"fatal filters error", LevelFatal, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", got, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			if got := strings.Contains(buf.String(), "info message"); got != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", got, tt.logAtInfo, buf.String())
			}

			buf.Reset()
			logger.Error("error message")
			if got := strings.Contains(buf.String(), "error message"); got != tt.logAtError {
				t.Errorf("error message visible = %v, want %v (buf: %q)", got, tt.logAtError, buf.String())
			}
		})
	}
}

func TestNewLogger_LevelVarChangesAfterConstruction(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	logger := NewLogger(&lvl, &buf)

	logger.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug logged at default level: %q", buf.String())
	}

	lvl.Set(slog.LevelDebug)
	logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not logged after level change: %q", buf.String())
	}
}

func TestNewLogger_LabelsCustomLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelTrace, &buf)

	logger.Log(context.Background(), LevelTrace, "trace message")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}

func TestLevelOrdering(t *testing.T) {
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
	if LevelFatal <= slog.LevelError {
		t.Errorf("LevelFatal (%d) should be greater than LevelError (%d)", LevelFatal, slog.LevelError)
	}
}

func TestNewRunLogger_EmptyDir(t *testing.T) {
	rl := NewRunLogger("")
	if rl != nil {
		t.Error("expected nil RunLogger for empty dir")
	}

	// Nil logger should still be safe to use
	rl.Log(map[string]any{"run": "test"})
	rl.Close()
}

func TestRunLogger_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	rl := NewRunLogger(dir)
	if rl == nil {
		t.Fatal("NewRunLogger returned nil")
	}
	defer rl.Close()

	rl.Log(map[string]any{"spec": "first", "steps": 12})
	rl.Log(map[string]any{"spec": "second", "steps": 40})

	data, err := os.ReadFile(filepath.Join(dir, "runs.jsonl"))
	if err != nil {
		t.Fatalf("failed to read runs.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if first["spec"] != "first" {
		t.Errorf("spec = %v, want first", first["spec"])
	}
	if first["steps"] != float64(12) {
		t.Errorf("steps = %v, want 12", first["steps"])
	}
	if _, ok := first["time"]; !ok {
		t.Error("expected 'time' field in run log entry")
	}
}

func TestRunLogger_DoesNotMutateCallerMap(t *testing.T) {
	rl := NewRunLogger(t.TempDir())
	defer rl.Close()

	record := map[string]any{"spec": "test"}
	rl.Log(record)

	if _, hasTime := record["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestRunLogger_LogAfterClose(t *testing.T) {
	rl := NewRunLogger(t.TempDir())

	rl.Log(map[string]any{"spec": "before_close"})
	rl.Close()

	// Should be a no-op, not panic or error
	rl.Log(map[string]any{"spec": "after_close"})
}

func TestRunLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	rl := NewRunLogger(dir)
	defer rl.Close()

	rl.Log(map[string]any{"spec": "perm_test"})

	info, err := os.Stat(filepath.Join(dir, "runs.jsonl"))
	if err != nil {
		t.Fatalf("failed to stat runs.jsonl: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
