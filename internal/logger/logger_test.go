package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelInfo)

	lg.Info(context.Background(), "fetched",
		String("endpoint", "fights"),
		Int("events", 3),
		Int64("start", 100000),
		Bool("kill", true),
		Error(errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"msg=fetched", "endpoint=fights", "events=3", "start=100000", "kill=true", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelInfo)

	lg.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestLoggerNamedAndWith(t *testing.T) {
	var buf bytes.Buffer
	lg := New(&buf, slog.LevelDebug).With(String("run_id", "abc")).Named("wcl")

	lg.Error(context.Background(), "request failed", Error(errors.New("boom")), Int64("start", 10))

	out := buf.String()
	for _, want := range []string{"run_id=abc", "wcl.error=boom", "wcl.start=10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	lg := Nop()
	if lg == nil {
		t.Fatal("nop logger is nil")
	}
	lg.Error(context.Background(), "ignored")
}
