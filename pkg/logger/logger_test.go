package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpers_WriteToGlobalLogger(t *testing.T) {
	core, obs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Info("info", zap.String("k", "v"))
	Warn("warn")
	Debug("debug")
	Error("error")

	entries := obs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Message != "info" || entries[0].Context[0].Key != "k" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", entries[1].Level)
	}
}

func TestGetLogger_NopWhenUninitialized(t *testing.T) {
	SetLogger(nil)
	if GetLogger() == nil {
		t.Fatalf("expected non-nil logger")
	}
	Info("dropped")
}

func TestInit_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	readable := filepath.Join(dir, "app.log")
	jsonPath := filepath.Join(dir, "app.json.log")

	if err := Init(Options{Level: "debug", File: readable, JSONFile: jsonPath}); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer SetLogger(nil)

	Info("hello", zap.Int("n", 1))
	Sync()

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("json log missing message: %s", data)
	}

	data, err = os.ReadFile(readable)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log missing message: %s", data)
	}
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	if err := Init(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
