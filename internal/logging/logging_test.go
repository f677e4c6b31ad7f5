package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("logger not recovered from context")
	}
	if FromContext(context.Background()) != nil {
		t.Error("bare context yielded a logger")
	}
}

func TestScopedPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var fromCtx, fromFallback bytes.Buffer
	ctxLogger := slog.New(slog.NewJSONHandler(&fromCtx, nil))
	fallback := slog.New(slog.NewJSONHandler(&fromFallback, nil))

	ctx := ContextWithLogger(context.Background(), ctxLogger)
	Scoped(ctx, fallback, "service", "timetable").Info("hello")

	if !strings.Contains(fromCtx.String(), `"service":"timetable"`) {
		t.Errorf("context logger output = %q, want service attr", fromCtx.String())
	}
	if fromFallback.Len() != 0 {
		t.Errorf("fallback logger received output: %q", fromFallback.String())
	}
}

func TestScopedFallsBack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))

	Scoped(context.Background(), fallback, "handler", "TimetableHandler").Info("hello")

	if !strings.Contains(buf.String(), `"handler":"TimetableHandler"`) {
		t.Errorf("fallback output = %q, want handler attr", buf.String())
	}
}
