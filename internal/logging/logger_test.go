package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scalabatch/internal/config"
	"scalabatch/internal/logging"
	"scalabatch/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, "", &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")
	if buf.Len() != 0 {
		t.Fatalf("debug line should be filtered at info level, got %q", buf.String())
	}

	logger, err = logging.NewFromConfig(&cfg, "debug", &buf)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Fatalf("level override ignored, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithChunk(ctx, 2)
	ctx = services.WithUnit(ctx, "a.b.Foo")
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "worker"))
	log.Info("decompile finished", logging.String(logging.FieldMarker, "✅"))

	line := buf.String()
	for _, fragment := range []string{"INFO", "[worker]", "a.b.Foo (chunk 2)", "decompile finished", "marker=✅"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "run-1") {
		t.Fatalf("expected run id to be omitted from console output, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRunFileHandlerWritesJSON(t *testing.T) {
	dir := t.TempDir()
	handler, closer, path, err := logging.NewRunFileHandler(dir, "abc")
	if err != nil {
		t.Fatalf("NewRunFileHandler: %v", err)
	}
	if path != filepath.Join(dir, "scalabatch-abc.log") {
		t.Fatalf("unexpected run log path %q", path)
	}

	var console bytes.Buffer
	base, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger := logging.TeeLogger(base, handler)
	logger.Debug("debug only in file", logging.String(logging.FieldUnit, "x.Y"))
	logger.Info("both")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if strings.Contains(console.String(), "debug only in file") {
		t.Fatalf("console should not receive debug record: %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %q", len(lines), data)
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first["level"] != "debug" || first[logging.FieldUnit] != "x.Y" {
		t.Fatalf("unexpected record %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Fatalf("expected ts key in %v", first)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WarnWithContext(logger, "ignored", "test")
	logging.ErrorWithContext(nil, "ignored", "test")
}
