package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func newBufLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("bad log record %q: %v", buf.String(), err)
	}
	return rec
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		level string
		log   func(l *SlogLogger)
	}{
		{"DEBUG", func(l *SlogLogger) { l.Debug(ctx, "msg", "k", "v") }},
		{"INFO", func(l *SlogLogger) { l.Info(ctx, "msg", "k", "v") }},
		{"WARN", func(l *SlogLogger) { l.Warn(ctx, "msg", "k", "v") }},
		{"ERROR", func(l *SlogLogger) { l.Error(ctx, "msg", "k", "v") }},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, buf := newBufLogger(t)
			tt.log(l)
			rec := lastRecord(t, buf)
			if rec["level"] != tt.level {
				t.Errorf("want level %s, got %v", tt.level, rec["level"])
			}
			if rec["k"] != "v" {
				t.Errorf("missing attribute, got %v", rec)
			}
		})
	}
}

func TestSlogLogger_With(t *testing.T) {
	l, buf := newBufLogger(t)
	child := l.With("component", "blobstore")
	child.Info(context.Background(), "stored")

	rec := lastRecord(t, buf)
	if rec["component"] != "blobstore" {
		t.Errorf("child logger lost bound attribute: %v", rec)
	}
}
