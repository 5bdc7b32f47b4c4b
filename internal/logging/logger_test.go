package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cdrip/internal/config"
	"cdrip/internal/services"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerRendersSubject(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	logger = NewComponentLogger(logger, "encoder")

	ctx := services.WithTrack(context.Background(), 3)
	ctx = services.WithJobID(ctx, "1a2b3c4d-0000-0000-0000-000000000000")
	WithContext(ctx, logger).Info("track encoded", String("file", "03 - Unknown - X - A_B.opus"))

	line := buf.String()
	for _, want := range []string{
		"INFO [encoder] Track 03 · job 1a2b3c4d - track encoded",
		`file="03 - Unknown - X - A_B.opus"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "job_id=") {
		t.Fatalf("subject fields should not repeat as attrs: %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN - shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrettyHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	logger.WithGroup("tags").Info("tags received", String("title", "Intro"), Int("number", 1))
	line := buf.String()
	if !strings.Contains(line, "tags.title=Intro") || !strings.Contains(line, "tags.number=1") {
		t.Fatalf("expected grouped keys, got %q", line)
	}
}

func TestPrettyHandlerKeepsLastDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo).With(String("format", "opus"))
	logger.Info("override", String("format", "flac"))
	line := buf.String()
	if strings.Count(line, "format=") != 1 || !strings.Contains(line, "format=flac") {
		t.Fatalf("expected single overridden format, got %q", line)
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Error("batch failed", ErrorKind(services.Wrap(services.ErrPrecondition, "transcode", "prepare", "", errors.New("denied"))))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload[FieldErrorKind] != "precondition" {
		t.Fatalf("expected precondition kind, got %v", payload[FieldErrorKind])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Logging.Format = "json"

	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("hello")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "cdrip.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	WarnWithContext(logger, "tag mismatch", "tag_verify_mismatch", String(FieldImpact, "file keeps encoder tags"))
	line := buf.String()
	for _, want := range []string{"event_type=tag_verify_mismatch", `error_hint="check logs for details"`, `impact="file keeps encoder tags"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestErrorWithContextKeepsCallerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	ErrorWithContext(logger, "encode failed", "encode_failed",
		String(FieldEventType, "graph_error"),
		String(FieldErrorHint, "install gst-plugins-good"),
	)
	line := buf.String()
	for _, want := range []string{"event_type=graph_error", `error_hint="install gst-plugins-good"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Count(line, "event_type=") != 1 || strings.Contains(line, "impact=") {
		t.Fatalf("defaults should not duplicate caller fields: %q", line)
	}
	ErrorWithContext(nil, "ignored", "x")
}

func TestNopDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}
