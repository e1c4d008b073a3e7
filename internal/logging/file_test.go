package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithFileWritesBoth(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewLoggerWithWriter(&console, nil).WithComponent("coordinator").WithFile(&file)

	logger.Info().Str("endpoint", "/tmp/app.sock").Msg("Claimed endpoint")

	if !strings.Contains(console.String(), "Claimed endpoint") {
		t.Errorf("Console output missing message: %q", console.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("File output is not JSON: %v (%q)", err, file.String())
	}
	if entry["component"] != "coordinator" {
		t.Errorf("Expected component coordinator, got %v", entry["component"])
	}
	if entry["endpoint"] != "/tmp/app.sock" {
		t.Errorf("Expected endpoint field, got %v", entry["endpoint"])
	}
}

func TestWithFileLeavesParentUnchanged(t *testing.T) {
	var console, file bytes.Buffer
	parent := NewLoggerWithWriter(&console, nil)
	_ = parent.WithFile(&file)

	parent.Info().Msg("parent only")
	if file.Len() != 0 {
		t.Errorf("Parent logger should not write to the file, got %q", file.String())
	}
}

func TestNewFileWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w := NewFileWriter(path)
	logger := NewNopLogger().WithFile(w)
	logger.Info().Msg("written to disk")
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to disk") {
		t.Errorf("Log file missing message: %q", data)
	}
}
