package liquidglass

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled at every level")
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	Logger().Info("pipeline ready", "backend", "software")
	if buf.Len() == 0 {
		t.Error("expected log output after SetLogger")
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	SetLogger(nil)

	Logger().Error("should be discarded")
	if buf.Len() != 0 {
		t.Error("nil logger should restore silent behavior")
	}
}
