package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"bogus":   slog.LevelDebug,
	}
	for in, want := range tests {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestComponentTagsRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "info"), "pipeline")
	log.Debug("hidden")
	log.Info("ingested", "count", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked at info level: %s", out)
	}
	if !strings.Contains(out, "component=pipeline") || !strings.Contains(out, "count=3") {
		t.Fatalf("unexpected output: %s", out)
	}

	Component(nil, "x").Info("dropped")
}
